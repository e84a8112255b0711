package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alphabot-ai/devconnect/internal/auth"
	"github.com/alphabot-ai/devconnect/internal/client"
	"github.com/alphabot-ai/devconnect/internal/config"
	httpapp "github.com/alphabot-ai/devconnect/internal/http"
	"github.com/alphabot-ai/devconnect/internal/logging"
	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/posts"
	"github.com/alphabot-ai/devconnect/internal/rate"
	"github.com/alphabot-ai/devconnect/internal/store/backend"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const defaultServerURL = "http://localhost:5000"

// CLIConfig is the client state persisted to ~/.devconnect/config.json.
type CLIConfig struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}
	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("devconnect v0.1.0")
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login", "auth":
		cmdLogin(args)
	case "whoami", "status":
		cmdWhoami(args)
	case "post":
		cmdPost(args)
	case "read", "list":
		cmdRead(args)
	case "like":
		cmdLike(args, true)
	case "unlike":
		cmdLike(args, false)
	case "comment":
		cmdComment(args)
	case "uncomment":
		cmdUncomment(args)
	case "delete", "rm":
		cmdDelete(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`devconnect - social network for developers

Usage: devconnect <command> [options]

Client Commands:
  register            Create an account and log in
  login               Log in with email and password
  whoami              Show the logged in user
  post                Publish a post
  read                List posts, or show one with --post
  like / unlike       Like or unlike a post
  comment             Comment on a post
  uncomment           Delete one of your comments
  delete              Delete one of your posts

Server:
  server              Start the DevConnect server (default if no command)

Examples:
  devconnect register --name "Ada" --email ada@example.com
  devconnect post --text "Hello, developers"
  devconnect read --post <id>
  devconnect comment --post <id> --text "Nice"

Environment Variables (server):
  DEVCONNECT_ADDR           Listen address (default: :5000, or :$PORT)
  DEVCONNECT_DB_DRIVER      sqlite, postgres or mongo (default: sqlite)
  DEVCONNECT_DB_DSN         Database path, DSN or URI (default: devconnect.db)
  DEVCONNECT_JWT_SECRET     Token signing secret
  DEVCONNECT_TOKEN_TTL      Token lifetime (default: 100h)
  DEVCONNECT_LOG_LEVEL      debug, info, warn, error (default: info)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	envErr := godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if envErr != nil {
		log.Debug(context.Background(), "no .env file, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := backend.Open(openCtx, cfg)
	cancel()
	if err != nil {
		log.Error(ctx, "failed to open store", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	authSvc, err := auth.NewService(st, auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), cfg.BcryptCost)
	if err != nil {
		log.Error(ctx, "failed to initialize auth", "err", err)
		os.Exit(1)
	}
	server := httpapp.NewServer(authSvc, posts.NewService(st), rate.NewMemory(), log, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "devconnect listening", "addr", cfg.Addr, "driver", cfg.DBDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error(ctx, "server error", "err", err)
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name (required)")
	email := fs.String("email", "", "Email address (required)")
	password := fs.String("password", "", "Password (prompted when omitted)")
	url := fs.String("url", "", "DevConnect server URL")
	fs.Parse(args)

	if *name == "" || *email == "" {
		fatalf("--name and --email are required")
	}
	pw := *password
	if pw == "" {
		pw = promptPassword()
	}

	c := client.New(serverURL(*url))
	if err := c.Register(*name, *email, pw); err != nil {
		fatalf("%v", err)
	}
	saveSession(c, *email)
	fmt.Printf("✓ Registered %s\n", *email)
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (prompted when omitted)")
	url := fs.String("url", "", "DevConnect server URL")
	fs.Parse(args)

	addr := *email
	if addr == "" {
		cfg, _ := loadCLIConfig()
		addr = cfg.Email
	}
	if addr == "" {
		fatalf("--email is required")
	}
	pw := *password
	if pw == "" {
		pw = promptPassword()
	}

	c := client.New(serverURL(*url))
	if err := c.Login(addr, pw); err != nil {
		fatalf("%v", err)
	}
	saveSession(c, addr)
	fmt.Printf("✓ Logged in as %s\n", addr)
}

func cmdWhoami(args []string) {
	c := loadAuthenticatedClient()
	me, err := c.Me()
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("User:   %s <%s>\n", me.Name, me.Email)
	fmt.Printf("ID:     %s\n", me.ID)
	fmt.Printf("Since:  %s\n", me.Date.Format(time.RFC3339))
	fmt.Printf("Server: %s\n", c.BaseURL)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	text := fs.String("text", "", "Post text (required)")
	fs.Parse(args)

	if strings.TrimSpace(*text) == "" {
		fatalf("--text is required")
	}
	c := loadAuthenticatedClient()
	p, err := c.CreatePost(*text)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("✓ Posted %s\n", p.ID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	postID := fs.String("post", "", "Show one post with its comments")
	limit := fs.Int("limit", 20, "Number of posts")
	fs.Parse(args)

	c := loadAuthenticatedClient()
	me, err := c.Me()
	if err != nil {
		fatalf("%v", err)
	}

	if *postID != "" {
		p, err := c.GetPost(*postID)
		if err != nil {
			fatalf("%v", err)
		}
		printPost(*p, me.ID)
		if len(p.Comments) > 0 {
			fmt.Printf("\n  --- Comments (%d) ---\n", len(p.Comments))
			for _, cm := range p.Comments {
				fmt.Printf("  [%s] %s: %s\n", cm.ID, cm.Name, cm.Text)
			}
		}
		return
	}

	list, err := c.ListPosts()
	if err != nil {
		fatalf("%v", err)
	}
	if len(list) > *limit {
		list = list[:*limit]
	}
	for _, p := range list {
		printPost(p, me.ID)
		fmt.Println()
	}
}

func printPost(p model.Post, viewer string) {
	liked := ""
	if p.LikedBy(viewer) {
		liked = " (liked)"
	}
	fmt.Printf("%s\n", p.Text)
	fmt.Printf("  %s | %d likes%s | %d comments | %s | #%s\n",
		p.Name, len(p.Likes), liked, len(p.Comments), p.Date.Format("2006-01-02 15:04"), p.ID)
}

func cmdLike(args []string, like bool) {
	name := "unlike"
	if like {
		name = "like"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	fs.Parse(args)

	if *postID == "" {
		fatalf("--post is required")
	}
	c := loadAuthenticatedClient()
	var (
		likes []model.Like
		err   error
	)
	if like {
		likes, err = c.Like(*postID)
	} else {
		likes, err = c.Unlike(*postID)
	}
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("✓ %sd, %d likes\n", name, len(likes))
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	text := fs.String("text", "", "Comment text (required)")
	fs.Parse(args)

	if *postID == "" || strings.TrimSpace(*text) == "" {
		fatalf("--post and --text are required")
	}
	c := loadAuthenticatedClient()
	p, err := c.Comment(*postID, *text)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("✓ Comment %s added\n", p.Comments[0].ID)
}

func cmdUncomment(args []string) {
	fs := flag.NewFlagSet("uncomment", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	commentID := fs.String("comment", "", "Comment ID (required)")
	fs.Parse(args)

	if *postID == "" || *commentID == "" {
		fatalf("--post and --comment are required")
	}
	c := loadAuthenticatedClient()
	remaining, err := c.Uncomment(*postID, *commentID)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("✓ Comment deleted, %d left\n", len(remaining))
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	fs.Parse(args)

	if *postID == "" {
		fatalf("--post is required")
	}
	c := loadAuthenticatedClient()
	if err := c.DeletePost(*postID); err != nil {
		fatalf("%v", err)
	}
	fmt.Println("✓ Post removed")
}

// ============================================================================
// HELPERS
// ============================================================================

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func promptPassword() string {
	fmt.Fprint(os.Stderr, "Password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fatalf("read password: %v", err)
		}
		return string(pw)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fatalf("read password: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func serverURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg, err := loadCLIConfig(); err == nil && cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if env := os.Getenv("DEVCONNECT_URL"); env != "" {
		return env
	}
	return defaultServerURL
}

func devconnectDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".devconnect")
}

func cliConfigPath() string {
	return filepath.Join(devconnectDir(), "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return CLIConfig{}, errors.New("not logged in - run 'devconnect login' or 'devconnect register'")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	if err := os.MkdirAll(devconnectDir(), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return os.WriteFile(cliConfigPath(), data, 0600)
}

func saveSession(c *client.Client, email string) {
	if err := saveCLIConfig(CLIConfig{BaseURL: c.BaseURL, Email: email, Token: c.Token}); err != nil {
		fatalf("save session: %v", err)
	}
}

func loadAuthenticatedClient() *client.Client {
	cfg, err := loadCLIConfig()
	if err != nil {
		fatalf("%v", err)
	}
	if cfg.Token == "" {
		fatalf("not logged in - run 'devconnect login'")
	}
	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c
}
