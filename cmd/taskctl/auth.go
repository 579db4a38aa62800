package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard/internal/client"
	"github.com/spf13/cobra"
)

func (a *cliApp) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE:  a.runLogin,
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *cliApp) runLogin(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	c, err := a.newClient(false)
	if err != nil {
		return err
	}
	auth, err := c.Login(cmd.Context(), email, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("invalid email or password")
		}
		return err
	}
	if err := a.saveSession(a.server(), auth); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", auth.User.Email)
	return nil
}

func (a *cliApp) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE:  a.runRegister,
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Password (8 to 72 characters)")
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	for _, name := range []string{"email", "password", "first-name", "last-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *cliApp) runRegister(cmd *cobra.Command, _ []string) error {
	var req client.RegisterRequest
	req.Email, _ = cmd.Flags().GetString("email")
	req.Password, _ = cmd.Flags().GetString("password")
	req.FirstName, _ = cmd.Flags().GetString("first-name")
	req.LastName, _ = cmd.Flags().GetString("last-name")

	c, err := a.newClient(false)
	if err != nil {
		return err
	}
	auth, err := c.Register(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := a.saveSession(a.server(), auth); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s\n", auth.User.Email)
	return nil
}

func (a *cliApp) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.saveSession(a.server(), nil); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
