package main

import "github.com/trezcool/shule/core/school"

// addUser creates an active user account.
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	_, err := cli.store.CreateUser(school.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
		IsActive: true,
	})
	return err
}
