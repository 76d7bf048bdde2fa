package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/models"
)

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	displayName, err := GetSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	level, err := GetSimpleText(a.reader, "Education level (O_LEVEL or A_LEVEL)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	form, err := GetSimpleText(a.reader, "Form class (1-6)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	formClass, err := strconv.Atoi(form)
	if err != nil {
		fmt.Fprintln(a.out, "Form class must be a number between 1 and 6")
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	_, err = a.auth.Register(ctx, remote.RegisterRequest{
		Email:          email,
		Password:       password,
		DisplayName:    displayName,
		EducationLevel: level,
		FormClass:      formClass,
	})
	if err != nil {
		fmt.Fprintf(a.out, "Registration unsuccessful: %v\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Account created, you can log in now")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	user, err := a.auth.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %v\n", err)
		return err
	}

	a.user = user
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Karibu, %s!\n", user.DisplayName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) currentUser() (*models.User, error) {
	if a.user == nil {
		return nil, fmt.Errorf("not logged in")
	}
	return a.user, nil
}
