package main

import (
	"context"
	"errors"

	"devmatch/client/internal/feed"
	"devmatch/client/internal/models"
	"devmatch/client/internal/requests"

	"github.com/spf13/cobra"
)

func newFeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Browse developer profiles",
		Long: `Interactive feed. Keys: n/p next or previous card, N/P next or previous
page, f edit filters, c clear filters, r refresh, i interested, x ignore, q quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(cmd.Context()); err != nil {
				return err
			}
			return runFeed(cmd.Context(), app)
		},
	}
}

func runFeed(ctx context.Context, app *App) error {
	machine := feed.NewMachine(app.api, app.logger)
	defer machine.Close()
	actions := requests.NewActions(app.api, machine, app.logger)

	report := func(err error) {
		if err != nil && !errors.Is(err, feed.ErrSuperseded) {
			app.fail(err)
		}
	}

	report(machine.Load(ctx))
	for {
		app.println(renderFeed(machine.Snapshot(), app.t))
		line, ok := app.readLine(app.t("feed.prompt"))
		if !ok {
			return nil
		}

		switch line {
		case "q":
			return nil
		case "n":
			machine.NextCard()
		case "p":
			machine.PrevCard()
		case "N":
			report(machine.NextPage(ctx))
		case "P":
			report(machine.PrevPage(ctx))
		case "r":
			report(machine.Refresh(ctx))
		case "c":
			report(machine.ClearFilters(ctx))
		case "f":
			report(editFilters(ctx, app, machine))
		case "i", "x":
			p, ok := machine.Snapshot().Active()
			if !ok {
				continue
			}
			status := models.StatusInterested
			if line == "x" {
				status = models.StatusIgnored
			}
			if err := actions.Express(ctx, status, p.ID); err != nil {
				app.fail(err)
				continue
			}
			app.println(styles.Muted.Render(app.t("feed.expressed", p.FullName(), string(status))))
		case "":
		default:
			app.println(styles.Muted.Render(app.t("feed.help")))
		}
	}
}

// editFilters walks the filter form field by field. Empty answers keep the
// current value; "-" clears it.
func editFilters(ctx context.Context, app *App, machine *feed.Machine) error {
	machine.OpenFilters()
	form := machine.Snapshot().Form

	keep := func(prompt, current string) (string, bool) {
		line, ok := app.readLine(app.t(prompt, current))
		switch {
		case !ok:
			return current, false
		case line == "":
			return current, true
		case line == "-":
			return "", true
		}
		return line, true
	}

	skills, ok := keep("filters.skills", joinList(form.Skills))
	if !ok {
		machine.CloseFilters()
		return nil
	}
	minAge, _ := keep("filters.min_age", form.MinAge)
	maxAge, _ := keep("filters.max_age", form.MaxAge)
	gender, _ := keep("filters.gender", form.Gender)
	limit, _ := keep("filters.limit", limitText(form.Limit))

	err := machine.EditForm(func(f *feed.FilterForm) error {
		f.Skills = nil
		for _, s := range splitList(skills) {
			if _, err := f.AddSkill(s); err != nil {
				return err
			}
		}
		f.MinAge, f.MaxAge = minAge, maxAge
		if gender == "" {
			gender = models.GenderAll
		}
		if err := f.SetGender(gender); err != nil {
			return err
		}
		n, err := parseLimit(limit)
		if err != nil {
			return err
		}
		f.Limit = n
		return nil
	})
	if err != nil {
		machine.CloseFilters()
		return err
	}
	return machine.ApplyFilters(ctx)
}
