package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/fotoescola/core"
)

func TestMaxRolePriority(t *testing.T) {
	tests := []struct {
		roles []string
		want  int
	}{
		{roles: nil, want: 0},
		{roles: []string{RoleStudent}, want: 1},
		{roles: []string{RoleStudent, RoleInstructor}, want: 11},
		{roles: []string{RoleAdminFinance, RoleAdmin}, want: 25},
		{roles: []string{RoleAdminOwner, RoleStudent}, want: 30},
		{roles: []string{"unknown"}, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaxRolePriority(tt.roles), "roles: %v", tt.roles)
	}
}

func TestUser_roles(t *testing.T) {
	finance := User{Roles: []string{RoleAdminFinance}}
	assert.True(t, finance.IsAdmin())
	assert.False(t, finance.IsInstructor())
	assert.True(t, finance.HasAnyRole(FinanceRoles...))

	admin := User{Roles: []string{RoleAdmin}}
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.HasAnyRole(FinanceRoles...))

	student := User{Roles: []string{RoleStudent}}
	assert.True(t, student.IsStudent())
	assert.False(t, student.IsAdmin())
}

func TestUser_password(t *testing.T) {
	var usr User
	assert.NoError(t, usr.SetPassword("Xk7#mPq2!vL"))
	assert.NoError(t, usr.CheckPassword("Xk7#mPq2!vL"))
	assert.Error(t, usr.CheckPassword("xk7#mpq2!vl"))
}

func TestQueryFilter_Match(t *testing.T) {
	created := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	usr := User{
		Name:      "Carlos Silva",
		Username:  "carlos",
		Email:     "carlos@example.com",
		IsActive:  true,
		Roles:     []string{RoleAdminFinance},
		CreatedAt: created,
	}
	yes, no := true, false

	tests := []struct {
		name   string
		filter QueryFilter
		want   bool
	}{
		{name: "empty", want: true},
		{name: "search name", filter: QueryFilter{Search: "SILVA"}, want: true},
		{name: "search email", filter: QueryFilter{Search: "example.com"}, want: true},
		{name: "search miss", filter: QueryFilter{Search: "ana"}, want: false},
		{name: "role prefix", filter: QueryFilter{Roles: []string{RoleAdmin}}, want: true},
		{name: "role miss", filter: QueryFilter{Roles: []string{RoleStudent, RoleInstructor}}, want: false},
		{name: "active", filter: QueryFilter{IsActive: &yes}, want: true},
		{name: "inactive", filter: QueryFilter{IsActive: &no}, want: false},
		{name: "created from", filter: QueryFilter{CreatedFrom: core.NewQueryTime(created)}, want: true},
		{name: "created to", filter: QueryFilter{CreatedTo: core.NewQueryTime(created.Add(-time.Second))}, want: false},
		{name: "and", filter: QueryFilter{Search: "carlos", Roles: []string{RoleStudent}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(usr))
		})
	}

	assert.True(t, (&QueryFilter{}).IsEmpty())
	assert.False(t, (&QueryFilter{IsActive: &no}).IsEmpty())
}
