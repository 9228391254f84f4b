package dto

type DashboardQuery struct {
	Range  string `form:"range"`
	Period string `form:"period"`
}
