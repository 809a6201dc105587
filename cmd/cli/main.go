// Command hk is a CLI client for the health-keeper service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/health-keeper/internal/client"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "health-keeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "health-keeper")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", errors.New("no token (login required)")
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// tokenExpiry prefers the server-reported expiry and falls back to the exp claim.
func tokenExpiry(raw string, reported time.Time) time.Time {
	if !reported.IsZero() {
		return reported
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

const usageText = `hk CLI
Usage:
  hk [-addr URL] [-timeout D] <cmd> [args]

Commands:
  version
  register    -n <name> -e <email> -p <password>   (saves token)
  login       -e <email> -p <password>             (saves token)
  me
  rename      -n <name>
  categories
  predict     -c <category> key=value [key=value ...]
  history
  health
`

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("hk", flag.ContinueOnError)
	global.SetOutput(stderr)
	addr := global.String("addr", envOr("HK_ADDR", "http://localhost:8080"), "server base URL")
	timeout := global.Duration("timeout", client.DefaultTimeout, "request timeout")
	global.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() < 1 {
		global.Usage()
		return 2
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	api := client.New(*addr, *timeout)

	if err := dispatch(ctx, api, cmd, rest, stdout, stderr); err != nil {
		if errors.Is(err, errUsage) {
			global.Usage()
			return 2
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, api *client.Client, cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "hk %s (%s)\n", version, buildDate)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		fs.SetOutput(stderr)
		n := fs.String("n", "", "display name")
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *n == "" || *e == "" || *p == "" {
			return errors.New("need -n, -e and -p")
		}
		resp, err := api.Register(ctx, *n, *e, *p)
		if err != nil {
			return err
		}
		if err := saveToken(resp.Token, tokenExpiry(resp.Token, resp.ExpiresAt)); err != nil {
			return err
		}
		printJSON(stdout, resp.User)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.SetOutput(stderr)
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *e == "" || *p == "" {
			return errors.New("need -e and -p")
		}
		resp, err := api.Login(ctx, *e, *p)
		if err != nil {
			return err
		}
		if err := saveToken(resp.Token, tokenExpiry(resp.Token, resp.ExpiresAt)); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "ok")
		return nil

	case "me":
		token, err := loadToken()
		if err != nil {
			return err
		}
		u, err := api.Me(ctx, token)
		if err != nil {
			return err
		}
		printJSON(stdout, u)
		return nil

	case "rename":
		fs := flag.NewFlagSet("rename", flag.ContinueOnError)
		fs.SetOutput(stderr)
		n := fs.String("n", "", "new display name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *n == "" {
			return errors.New("need -n")
		}
		token, err := loadToken()
		if err != nil {
			return err
		}
		u, err := api.Rename(ctx, token, *n)
		if err != nil {
			return err
		}
		printJSON(stdout, u)
		return nil

	case "categories":
		cats, err := api.Categories(ctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Fprintln(stdout, c)
		}
		return nil

	case "predict":
		fs := flag.NewFlagSet("predict", flag.ContinueOnError)
		fs.SetOutput(stderr)
		c := fs.String("c", "", "category")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *c == "" || fs.NArg() == 0 {
			return errors.New("need -c and at least one key=value answer")
		}
		answers, err := parseAnswers(fs.Args())
		if err != nil {
			return err
		}
		token, err := loadToken()
		if err != nil {
			return err
		}
		out, err := api.Predict(ctx, token, *c, answers)
		if err != nil {
			return err
		}
		printJSON(stdout, out)
		return nil

	case "history":
		token, err := loadToken()
		if err != nil {
			return err
		}
		recs, err := api.History(ctx, token)
		if err != nil {
			return err
		}
		printJSON(stdout, recs)
		return nil

	case "health":
		if err := api.Health(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	}
	return errUsage
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
