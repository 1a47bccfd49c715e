package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:5000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = strings.TrimRight(envURL, "/")
	}

	client := NewAPIClient(apiURL)
	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "status":
		err = statusCmd(client)
	case "register":
		err = registerCmd(client, args)
	case "login":
		err = loginCmd(client, args)
	case "generate":
		err = generateCmd(client, args)
	case "list":
		err = listCmd(client, args)
	case "export":
		err = exportCmd(client, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`studyctl - command line client for the Study Buddy API

USAGE:
  studyctl <command> [options]

COMMANDS:
  status    Show backend status (storage, OpenAI, auth mode)
  register  Create an account
  login     Log in and print a session token
  generate  Generate flashcards from a notes file
  list      List your saved flashcards
  export    Print your flashcards as an export document
  help      Show this help message

ENVIRONMENT:
  API_URL      Backend API URL (default: http://localhost:5000)
  STUDY_TOKEN  Session token used when --token is not given

EXAMPLES:
  studyctl register --username=alice --email=alice@example.com --password=secret1
  export STUDY_TOKEN=$(studyctl login --username=alice --password=secret1 --quiet)
  studyctl generate --notes=biology.txt --subject=Biology --cards=5 --session="Week 1"
  studyctl export --format=json > flashcards.json`)
}

func tokenFlag(fs *flag.FlagSet) *string {
	return fs.String("token", os.Getenv("STUDY_TOKEN"), "Session token (default $STUDY_TOKEN)")
}

func statusCmd(client *APIClient) error {
	status, err := client.Status()
	if err != nil {
		return err
	}

	fmt.Printf("Mode:          %s (%s)\n", status.Mode, status.Backend)
	fmt.Printf("Database:      %s\n", okString(status.DatabaseAvailable))
	fmt.Printf("OpenAI:        %s\n", okString(status.OpenAIConfigured))
	fmt.Printf("Auth required: %t\n", status.AuthRequired)
	fmt.Printf("Message:       %s\n", status.Message)
	return nil
}

func registerCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "Username (3-50 characters)")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (at least 6 characters)")
	fs.Parse(args)

	id, err := client.Register(*username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (id: %s)\n", *username, id)
	return nil
}

func loginCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password")
	quiet := fs.Bool("quiet", false, "Print only the session token")
	fs.Parse(args)

	user, err := client.Login(*username, *password)
	if err != nil {
		return err
	}

	if *quiet {
		fmt.Println(user.SessionToken)
		return nil
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
	fmt.Printf("Session token: %s\n", user.SessionToken)
	return nil
}

func generateCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	notesPath := fs.String("notes", "", "Path to a notes file, or - for stdin")
	subject := fs.String("subject", "", "Subject label (default General)")
	cards := fs.Int("cards", 0, "Number of flashcards (server default when 0)")
	session := fs.String("session", "", "Also save the new cards as a study session with this name")
	token := tokenFlag(fs)
	fs.Parse(args)

	if *notesPath == "" {
		return fmt.Errorf("--notes is required")
	}
	notes, err := readNotes(*notesPath)
	if err != nil {
		return err
	}

	result, err := client.Generate(*token, notes, *subject, *cards)
	if err != nil {
		return err
	}

	fmt.Printf("%s (source: %s)\n", result.Message, result.Source)
	if result.Warning != "" {
		fmt.Printf("Warning: %s\n", result.Warning)
	}
	fmt.Println()
	for i, c := range result.Flashcards {
		fmt.Printf("%d. Q: %s\n   A: %s\n", i+1, c.Question, c.Answer)
	}

	if *session != "" && len(result.CardIDs) > 0 {
		id, err := client.SaveSession(*token, *session, result.CardIDs)
		if err != nil {
			return err
		}
		fmt.Printf("\nSaved study session %q (id: %s)\n", *session, id)
	}
	return nil
}

func listCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	token := tokenFlag(fs)
	fs.Parse(args)

	list, err := client.Flashcards(*token)
	if err != nil {
		return err
	}
	if list.Warning != "" {
		fmt.Printf("Warning: %s\n", list.Warning)
	}
	if len(list.Flashcards) == 0 {
		fmt.Println("No flashcards yet.")
		return nil
	}

	for _, f := range list.Flashcards {
		fmt.Printf("[%s] %s %s\n  Q: %s\n  A: %s\n",
			f.CreatedAt.Format("2006-01-02 15:04"), f.Subject, f.ID, f.Question, f.Answer)
	}
	return nil
}

func exportCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "Export format")
	token := tokenFlag(fs)
	fs.Parse(args)

	data, err := client.Export(*token, *format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func readNotes(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	return string(data), nil
}

func okString(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
