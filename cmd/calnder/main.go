// Command calnder is a thin terminal front end over the reconciliation
// client: it runs a sync pass against the configured sources and lets
// you inspect and mutate the merged event collection.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	calnder "github.com/calnder/calnder-client"
)

var (
	backendURL  string
	providerURL string
	credDir     string
)

var rootCmd = &cobra.Command{
	Use:           "calnder",
	Short:         "Inspect and mutate the merged Calnder event collection",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newClient() (*calnder.Client, error) {
	if backendURL == "" {
		backendURL = os.Getenv("CALNDER_BACKEND")
	}
	if backendURL == "" {
		return nil, fmt.Errorf("backend URL required (--backend or CALNDER_BACKEND)")
	}
	opts := []calnder.Option{calnder.WithHTTPTimeout(15 * time.Second)}
	if providerURL != "" {
		opts = append(opts, calnder.WithProviderBaseURL(providerURL))
	}
	if credDir != "" {
		opts = append(opts, calnder.WithCredentialDir(credDir))
	}
	return calnder.New(backendURL, opts...), nil
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass against both sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Sync(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("synced %d events\n", len(c.Store().List()))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List events, optionally hiding groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Sync(cmd.Context()); err != nil {
			return err
		}

		hidden, _ := cmd.Flags().GetStringSlice("hide")
		filters := calnder.FilterSet{}
		for _, g := range hidden {
			filters.Toggle(g)
		}
		events := calnder.ApplyFilter(c.Store().List(), filters)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTITLE\tSTART\tEND\tGROUP")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Key, e.Title,
				e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
				e.Group())
		}
		return w.Flush()
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create an event on the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		start, err := parseFlagTime(cmd, "start")
		if err != nil {
			return err
		}
		end, err := parseFlagTime(cmd, "end")
		if err != nil {
			return err
		}
		typ, _ := cmd.Flags().GetString("type")

		sess := c.Session()
		if err := sess.OpenSlot(start, end); err != nil {
			return err
		}
		draft, _ := sess.Draft()
		draft.Title = args[0]
		if typ != "" {
			draft.Type = calnder.EventType(typ)
		}
		if err := sess.SetDraft(draft); err != nil {
			return err
		}
		_, pending, err := sess.Save(cmd.Context())
		if err != nil {
			return err
		}
		if err := pending.Err(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("created")
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <origin/id>",
	Short: "Delete an event from its source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Sync(cmd.Context()); err != nil {
			return err
		}

		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		pending, err := c.Store().Remove(cmd.Context(), key)
		if err != nil {
			return err
		}
		if err := pending.Err(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("deleted", key)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Install a provider access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			return fmt.Errorf("--token is required")
		}
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		tok := oauth2.Token{AccessToken: token, Expiry: time.Now().Add(ttl)}
		if err := c.SetCredential(cmd.Context(), tok, calnder.Profile{Name: name}); err != nil {
			return err
		}
		fmt.Printf("logged in, %d events\n", len(c.Store().List()))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the provider credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}

func parseFlagTime(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func parseKey(s string) (calnder.EventKey, error) {
	origin, id, ok := strings.Cut(s, "/")
	if !ok || id == "" {
		return calnder.EventKey{}, fmt.Errorf("key must be origin/id, got %q", s)
	}
	switch calnder.Origin(origin) {
	case calnder.OriginLocal, calnder.OriginExternal:
		return calnder.ResolveKey(calnder.Origin(origin), id), nil
	default:
		return calnder.EventKey{}, fmt.Errorf("unknown origin %q", origin)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (defaults to CALNDER_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&providerURL, "provider", "", "override the provider base URL")
	rootCmd.PersistentFlags().StringVar(&credDir, "cred-dir", defaultCredDir(), "directory for the persisted provider credential")

	listCmd.Flags().StringSlice("hide", nil, "group keys to hide (event type, or origin for untyped events)")
	addCmd.Flags().String("start", "", "event start (RFC3339)")
	addCmd.Flags().String("end", "", "event end (RFC3339)")
	addCmd.Flags().String("type", "", "event type (event, task, appointment)")
	loginCmd.Flags().String("token", "", "provider bearer token")
	loginCmd.Flags().String("name", "", "display name for the profile")
	loginCmd.Flags().Duration("ttl", time.Hour, "token lifetime")

	rootCmd.AddCommand(syncCmd, listCmd, addCmd, rmCmd, loginCmd, logoutCmd)
}

func defaultCredDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/calnder"
	}
	return ""
}

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
