package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/learnbell/internal/model"
	"github.com/nhle/learnbell/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store an API token and user id in the system keyring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := session.Open(model.ConfigDir())
			if err != nil {
				return err
			}

			current, _ := store.Load()
			sess, err := promptSession(current)
			if err != nil {
				return err
			}
			if err := store.Save(sess); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", displayName(sess))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token and user id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := session.Open(model.ConfigDir())
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), flags.configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a configuration file pointing at a server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(flags.configPath); err == nil {
				return fmt.Errorf("config already exists at %s", flags.configPath)
			}

			cfg, err := model.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}

			baseURL := cfg.Server.BaseURL
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Server URL").
						Description("REST API root of the learning platform").
						Placeholder("https://lms.example.com/api").
						Value(&baseURL).
						Validate(validateURL),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
			cfg.Server.SocketURL = model.DeriveSocketURL(cfg.Server.BaseURL)
			if err := model.SaveConfig(flags.configPath, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flags.configPath)
			return nil
		},
	})

	return cmd
}

// promptSession asks for the session fields, prefilled with current.
func promptSession(current model.Session) (model.Session, error) {
	sess := current
	sess.Token = ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("User ID").
				Description("Your account id (read from the token when left empty)").
				Value(&sess.UserID),
			huh.NewInput().
				Title("Name").
				Description("Shown in the header (optional)").
				Value(&sess.UserName),
			huh.NewInput().
				Title("API Token").
				Description("Bearer token used for REST calls and the socket").
				EchoMode(huh.EchoModePassword).
				Value(&sess.Token).
				Validate(validateRequired("Token")),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return model.Session{}, errors.New("login cancelled")
		}
		return model.Session{}, err
	}

	sess.UserID = strings.TrimSpace(sess.UserID)
	sess.UserName = strings.TrimSpace(sess.UserName)
	sess.Token = strings.TrimSpace(sess.Token)
	return completeSession(sess)
}

// completeSession fills a missing user id or name from the token claims.
func completeSession(s model.Session) (model.Session, error) {
	if info, err := session.InspectToken(s.Token); err == nil {
		if s.UserID == "" {
			s.UserID = info.UserID
		}
		if s.UserName == "" {
			s.UserName = info.Name
		}
	}
	if s.UserID == "" {
		return s, errors.New("user id is required when the token does not carry one")
	}
	return s, nil
}

func displayName(s model.Session) string {
	if s.UserName != "" {
		return s.UserName
	}
	return s.UserID
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}
