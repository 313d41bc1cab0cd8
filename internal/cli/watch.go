package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/api/ws"
)

func newWatchCommand(g *globals) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream foreground visibility changes",
		Long: `Connect to the visibility stream and print each change until
interrupted, or until --count changes have been seen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := streamURL(g.cfg.URL)
			if err != nil {
				return err
			}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), target, nil)
			if err != nil {
				return fmt.Errorf("connect %s: %w", target, err)
			}
			defer conn.Close()

			go func() {
				<-cmd.Context().Done()
				_ = conn.Close()
			}()

			seen := 0
			for count <= 0 || seen < count {
				var msg ws.Message
				if err := conn.ReadJSON(&msg); err != nil {
					if cmd.Context().Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
						return nil
					}
					return err
				}
				switch msg.Type {
				case ws.TypeWelcome:
					if msg.Layout != nil {
						done(cmd, "connected: state=%s visible=%t", msg.Layout.State, msg.Layout.Visible)
					}
				case ws.TypeVisibility:
					if msg.Visibility == nil {
						continue
					}
					at := time.UnixMilli(msg.Timestamp).Format(time.TimeOnly)
					done(cmd, "%s visible=%t state=%s", at, msg.Visibility.Visible, msg.Visibility.State)
					seen++
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many changes (0 = forever)")
	return cmd
}

// streamURL maps the daemon's http(s) URL onto its ws(s) stream endpoint
func streamURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/visibility"
	return u.String(), nil
}
