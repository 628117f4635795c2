package model

type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
	RoleGod      Role = "god"
)

var roleRank = map[Role]int{
	RoleGuest:    0,
	RoleCustomer: 1,
	RoleManager:  2,
	RoleOwner:    3,
	RoleGod:      4,
}

// 不明なロールはguest扱い
func (r Role) Rank() int {
	return roleRank[r]
}

func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

func (r Role) IsStaff() bool {
	return r.AtLeast(RoleManager)
}

// 一番上のロール（削除などの破壊的操作用）
func (r Role) IsHighest() bool {
	return r == RoleGod
}
