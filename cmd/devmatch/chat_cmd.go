package main

import (
	"context"

	"devmatch/client/internal/chat"
	"devmatch/client/internal/socket"

	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <targetUserId>",
		Short: "Chat with a connection. Type /quit to leave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), app, args[0])
		},
	}
}

func runChat(ctx context.Context, app *App, target string) error {
	self, err := app.me(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dialer := socket.NewDialer(app.cfg, app.api.Jar(), app.logger)
	session := chat.NewSession(target, app.api, chat.SocketConnector(dialer), app.cfg.SendMode, app.logger)
	defer session.Close()
	composer := chat.NewComposer(session)

	// A later login switches the identity the session joins with. A signed
	// out update carries no id and keeps the current one.
	updates, unsubscribe := app.store.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				if u.ID == "" {
					continue
				}
				if err := session.Identify(ctx, u); err != nil {
					app.fail(err)
				}
			}
		}
	}()

	if err := session.Start(ctx); err != nil {
		app.fail(err)
	}
	if err := session.Identify(ctx, self); err != nil {
		return err
	}

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		var last uint64
		for {
			for _, m := range session.Messages() {
				if m.Seq <= last {
					continue
				}
				last = m.Seq
				app.println(renderMessage(m, session.IsSelf(m)))
			}
			select {
			case <-ctx.Done():
				return
			case <-session.Changed():
			}
		}
	}()

	app.println(styles.Muted.Render(app.t("chat.joined", target)))
	for {
		line, ok := app.readLine("")
		if !ok || line == "/quit" {
			break
		}
		composer.SetInput(line)
		if result := composer.Submit(ctx); result != nil {
			if err := <-result; err != nil {
				app.fail(err)
			}
		}
	}
	cancel()
	<-printed
	return nil
}
