package main

import (
	"errors"
	"strconv"
	"strings"

	"devmatch/client/internal/models"
	"devmatch/client/internal/requests"

	"github.com/spf13/cobra"
)

// newRootCmd builds a fresh command tree bound to app. The shell builds one
// per input line so flag values never leak between lines.
func newRootCmd(app *App) *cobra.Command {
	var email, password string

	root := &cobra.Command{
		Use:           "devmatch",
		Short:         "Terminal client for devmatch: browse developers, connect and chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if email != "" {
				app.email = email
			}
			if password != "" {
				app.password = password
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, app)
		},
	}
	root.PersistentFlags().StringVar(&email, "email", "", "log in with this email when there is no session")
	root.PersistentFlags().StringVar(&password, "password", "", "password for --email")

	root.AddCommand(
		newLoginCmd(app),
		newSignUpCmd(app),
		newLogoutCmd(app),
		newProfileCmd(app),
		newFeedCmd(app),
		newRequestsCmd(app),
		newConnectionsCmd(app),
		newChatCmd(app),
		&cobra.Command{
			Use:     "exit",
			Aliases: []string{"quit"},
			Short:   "Leave the shell",
			RunE:    func(*cobra.Command, []string) error { return errQuit },
		},
	)
	return root
}

// runShell reads commands until exit or end of input.
func runShell(cmd *cobra.Command, app *App) error {
	app.println(styles.Title.Render(app.t("shell.welcome")))
	for {
		line, ok := app.readLine("devmatch> ")
		if !ok {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		sub := newRootCmd(app)
		sub.SetArgs(args)
		sub.SetOut(cmd.OutOrStdout())
		err := sub.ExecuteContext(cmd.Context())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			app.fail(err)
		}
	}
}

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := models.Credentials{
				EmailID:  app.ask(app.email, app.t("prompt.email")),
				Password: app.ask(app.password, app.t("prompt.password")),
			}
			p, err := app.store.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			app.println(app.t("login.ok", p.FullName()))
			return nil
		},
	}
}

func newSignUpCmd(app *App) *cobra.Command {
	var req models.SignUp
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.FirstName = app.ask(req.FirstName, app.t("prompt.first_name"))
			req.EmailID = app.ask(app.email, app.t("prompt.email"))
			req.Password = app.ask(app.password, app.t("prompt.password"))
			p, err := app.store.SignUp(cmd.Context(), req)
			if err != nil {
				return err
			}
			app.println(app.t("signup.ok", p.FullName()))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.email, app.password = "", ""
			if err := app.store.Logout(cmd.Context()); err != nil {
				return err
			}
			app.println(app.t("logout.ok"))
			return nil
		},
	}
}

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.me(cmd.Context())
			if err != nil {
				return err
			}
			app.println(renderProfile(p, app.t))
			return nil
		},
	}

	var firstName, lastName, gender, bio, photo, skills string
	var age int
	edit := &cobra.Command{
		Use:   "edit",
		Short: "Change profile fields; unset flags are left as they are",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(cmd.Context()); err != nil {
				return err
			}
			var e models.ProfileEdit
			f := cmd.Flags()
			if f.Changed("first-name") {
				e.FirstName = &firstName
			}
			if f.Changed("last-name") {
				e.LastName = &lastName
			}
			if f.Changed("gender") {
				e.Gender = &gender
			}
			if f.Changed("bio") {
				e.Bio = &bio
			}
			if f.Changed("photo") {
				e.Photo = &photo
			}
			if f.Changed("age") {
				e.Age = &age
			}
			if f.Changed("skills") {
				e.Skills = splitList(skills)
			}
			p, err := app.store.EditProfile(cmd.Context(), e)
			if err != nil {
				return err
			}
			app.println(renderProfile(p, app.t))
			return nil
		},
	}
	edit.Flags().StringVar(&firstName, "first-name", "", "first name")
	edit.Flags().StringVar(&lastName, "last-name", "", "last name")
	edit.Flags().StringVar(&gender, "gender", "", "male, female or others")
	edit.Flags().StringVar(&bio, "bio", "", "about you")
	edit.Flags().StringVar(&photo, "photo", "", "photo url")
	edit.Flags().IntVar(&age, "age", 0, "age")
	edit.Flags().StringVar(&skills, "skills", "", "comma separated skills")
	cmd.AddCommand(edit)
	return cmd
}

func newRequestsCmd(app *App) *cobra.Command {
	list := func(cmd *cobra.Command, inbox *requests.Inbox) error {
		pending, err := inbox.Load(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			app.println(styles.Muted.Render(app.t("requests.none")))
			return nil
		}
		for _, r := range pending {
			app.println(r.ID + "  " + renderProfileLine(r.FromUserID))
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List requests waiting for your answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(cmd.Context()); err != nil {
				return err
			}
			return list(cmd, requests.NewInbox(app.api, app.logger))
		},
	}

	for _, status := range []models.RequestStatus{models.StatusAccepted, models.StatusRejected} {
		use := "accept"
		if status == models.StatusRejected {
			use = "reject"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use + " <requestId>",
			Short: strings.ToUpper(use[:1]) + use[1:] + " a pending request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := app.me(cmd.Context()); err != nil {
					return err
				}
				inbox := requests.NewInbox(app.api, app.logger)
				if _, err := inbox.Load(cmd.Context()); err != nil {
					return err
				}
				if err := inbox.Review(cmd.Context(), status, args[0]); err != nil {
					return err
				}
				app.println(app.t("requests.reviewed", args[0], string(status)))
				return nil
			},
		})
	}
	return cmd
}

func newConnectionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List the people you are connected with",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(cmd.Context()); err != nil {
				return err
			}
			conns, err := requests.NewConnections(app.api).Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(conns) == 0 {
				app.println(styles.Muted.Render(app.t("connections.none")))
				return nil
			}
			for _, p := range conns {
				app.println(renderProfileLine(p))
			}
			return nil
		},
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func limitText(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
