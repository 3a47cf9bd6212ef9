package main

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	email = core.CleanString(email, true /* lower */)

	users, err := cli.store.Users()
	if err != nil {
		return err
	}
	for _, usr := range users {
		if usr.Email == email {
			_, err = cli.store.UpdateUser(usr.ID, school.UpdateUser{Password: null.StringFrom(pwd)})
			return err
		}
	}
	return school.ErrNotFound
}
