// Package cli provides the command-line interface and REPL for VeridicalDB
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JayabrataBasu/VeridicalDB/internal/config"
	"github.com/JayabrataBasu/VeridicalDB/internal/logger"
	"github.com/JayabrataBasu/VeridicalDB/pkg/engine"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
	"github.com/chzyer/readline"
)

const replVersion = "0.1.0"

// REPL implements the Read-Eval-Print Loop for VeridicalDB
type REPL struct {
	config *config.Config
	log    *logger.Logger
	engine *engine.Engine
	rl     *readline.Instance
}

// NewREPL creates a new REPL instance backed by an engine rooted at
// cfg.Storage.DataDir.
func NewREPL(cfg *config.Config, log *logger.Logger) (*REPL, error) {
	eng, err := engine.NewEngine(cfg.Storage.DataDir, cfg.Storage.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	eng.SetLogger(log)
	return &REPL{
		config: cfg,
		log:    log,
		engine: eng,
	}, nil
}

// Run starts the REPL loop
func (r *REPL) Run() error {
	// Configure readline
	rlConfig := &readline.Config{
		Prompt:          "veridicaldb> ",
		HistoryFile:     getHistoryFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(),
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	// Print welcome message
	r.printWelcome()

	// Main REPL loop
	var multilineBuffer strings.Builder
	inMultiline := false

	for {
		// Update prompt for multiline input
		if inMultiline {
			rl.SetPrompt("         -> ")
		} else {
			rl.SetPrompt("veridicaldb> ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if inMultiline {
				// Cancel multiline input
				multilineBuffer.Reset()
				inMultiline = false
				fmt.Println("^C")
				continue
			}
			continue
		} else if err == io.EOF {
			fmt.Println("\nGoodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle multiline input
		multilineBuffer.WriteString(line)
		fullInput := multilineBuffer.String()

		// Check if command is complete (ends with semicolon for SQL, immediate for backslash commands)
		if strings.HasPrefix(fullInput, "\\") || strings.HasSuffix(fullInput, ";") {
			// Process complete command
			result := r.processCommand(strings.TrimSuffix(fullInput, ";"))
			if result == commandExit {
				fmt.Println("Goodbye!")
				return nil
			}
			multilineBuffer.Reset()
			inMultiline = false
		} else {
			// Continue collecting multiline input
			multilineBuffer.WriteString(" ")
			inMultiline = true
		}
	}
}

type commandResult int

const (
	commandOK commandResult = iota
	commandExit
	commandError
)

func (r *REPL) processCommand(input string) commandResult {
	input = strings.TrimSpace(input)
	upperInput := strings.ToUpper(input)

	// Handle backslash commands
	if strings.HasPrefix(input, "\\") {
		return r.handleBackslashCommand(input)
	}

	switch {
	case upperInput == "EXIT" || upperInput == "QUIT" || upperInput == "\\Q":
		return commandExit

	case upperInput == "HELP" || upperInput == "\\?" || upperInput == "\\HELP":
		r.printHelp()
		return commandOK

	default:
		return r.executeSQL(input)
	}
}

// executeSQL parses and runs one SQL statement against the open engine,
// rendering its result set or message to stdout.
func (r *REPL) executeSQL(input string) commandResult {
	stmt, err := sql.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Error] %v\n", err)
		return commandError
	}

	r.log.Debug("executing statement", "database", r.engine.CurrentDatabase(), "type", fmt.Sprintf("%T", stmt))
	result, err := engine.Execute(r.engine, stmt)
	if err != nil {
		r.log.Error("statement execution failed", "database", r.engine.CurrentDatabase(), "error", err)
		fmt.Fprintf(os.Stderr, "[Error] %v\n", err)
		return commandError
	}

	for _, d := range result.Diagnostics {
		fmt.Println(d)
	}
	if len(result.Headers) > 0 {
		if err := engine.WriteResultSet(os.Stdout, result.Headers, result.Rows); err != nil {
			fmt.Fprintf(os.Stderr, "[Error] %v\n", err)
			return commandError
		}
		return commandOK
	}
	if result.Message != "" {
		fmt.Println(result.Message)
	}
	return commandOK
}

func (r *REPL) handleBackslashCommand(input string) commandResult {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return commandOK
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "\\q", "\\quit", "\\exit":
		return commandExit

	case "\\?", "\\help":
		r.printHelp()
		return commandOK

	case "\\dt", "\\tables":
		for _, name := range r.engine.ListTables() {
			fmt.Println(name)
		}
		return commandOK

	case "\\di", "\\indexes":
		r.printIndexes()
		return commandOK

	case "\\d":
		if len(parts) > 1 {
			r.describeTable(parts[1])
		} else {
			fmt.Println("Usage: \\d <table_name>")
		}
		return commandOK

	case "\\status":
		r.printStatus()
		return commandOK

	case "\\config":
		r.printConfig()
		return commandOK

	case "\\clear":
		fmt.Print("\033[H\033[2J") // ANSI clear screen
		return commandOK

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type \\? for help")
		return commandError
	}
}

func (r *REPL) printWelcome() {
	fmt.Println(`
 __      __        _     _ _           _ ____  ____  
 \ \    / /       (_)   | (_)         | |  _ \|  _ \ 
  \ \  / /__ _ __  _  __| |_  ___ __ _| | | | | |_) |
   \ \/ / _ \ '__|| |/ _' | |/ __/ _' | | | | |  _ < 
    \  /  __/ |   | | (_| | | (_| (_| | | |_| | |_) |
     \/ \___|_|   |_|\__,_|_|\___\__,_|_|____/|____/ 

    Version ` + replVersion + `
    Type HELP; or \? for available commands
    `)
}

func (r *REPL) printHelp() {
	fmt.Println(`
VeridicalDB Commands
====================

SQL Commands:
  CREATE DATABASE name             Create a new database
  USE name                         Switch the open database
  CREATE TABLE name (columns...)   Create a new table
  DROP TABLE name                  Drop a table
  CREATE INDEX ON table (column)   Build an index on a column
  DROP INDEX ON table (column)     Drop a column's index
  INSERT INTO table VALUES (...)   Insert rows
  SELECT cols FROM table [WHERE]   Query data
  UPDATE table SET ... [WHERE]     Update rows
  DELETE FROM table [WHERE]        Delete rows
  SHOW TABLES | SHOW DATABASES     List tables or databases

Backslash Commands:
  \dt, \tables                     List all tables
  \di, \indexes                    List all indexes  
  \d <table>                       Describe a table
  \status                          Show session status
  \config                          Show configuration
  \clear                           Clear screen
  \?, \help                        Show this help
  \q, \quit                        Exit

Other:
  EXIT; or QUIT;                   Exit the shell
  HELP;                            Show this help

Note: Commands must end with ; (semicolon)
      Backslash commands do not need ;`)
}

func (r *REPL) printStatus() {
	fmt.Println("\nVeridicalDB Status")
	fmt.Println("==================")
	fmt.Printf("Version:    %s\n", replVersion)
	fmt.Printf("Database:   %s\n", r.engine.CurrentDatabase())
	fmt.Printf("Data Dir:   %s\n", r.config.Storage.DataDir)
	fmt.Printf("Log Level:  %s\n", r.config.Log.Level)
	fmt.Println()
}

func (r *REPL) printConfig() {
	fmt.Println("\nCurrent Configuration")
	fmt.Println("=====================")
	fmt.Printf("Storage:\n")
	fmt.Printf("  Data Directory:   %s\n", r.config.Storage.DataDir)
	fmt.Printf("  Page Size:        %d bytes\n", r.config.Storage.PageSize)
	fmt.Printf("\nLogging:\n")
	fmt.Printf("  Level:            %s\n", r.config.Log.Level)
	fmt.Printf("  Format:           %s\n", r.config.Log.Format)
	fmt.Printf("  Output:           %s\n", r.config.Log.Output)
	fmt.Println()
}

// describeTable prints a table's column definitions, the way \d does in
// the corpus's SQL shells.
func (r *REPL) describeTable(name string) {
	t, err := r.engine.Table(name)
	if err != nil {
		fmt.Printf("[Error] %v\n", err)
		return
	}
	schema, err := t.Schema()
	if err != nil {
		fmt.Printf("[Error] %v\n", err)
		return
	}
	fmt.Printf("\nTable %q\n", name)
	fmt.Println("Column       Type       NotNull  PrimaryKey  Indexed")
	for _, col := range schema.UserColumns() {
		indexMeta, indexErr := t.GetIndex(col.Name)
		fmt.Printf("%-12s %-10s %-8v %-11v %v\n", col.Name, col.Type, col.NotNull, col.PrimaryKey, indexErr == nil && indexMeta != nil)
	}
	fmt.Println()
}

// printIndexes lists every indexed column across every table in the open
// database.
func (r *REPL) printIndexes() {
	any := false
	for _, name := range r.engine.ListTables() {
		t, err := r.engine.Table(name)
		if err != nil {
			continue
		}
		schema, err := t.Schema()
		if err != nil {
			continue
		}
		for _, col := range schema.UserColumns() {
			if meta, err := t.GetIndex(col.Name); err == nil && meta != nil {
				fmt.Printf("%s.%s\n", name, col.Name)
				any = true
			}
		}
	}
	if !any {
		fmt.Println("(no indexes)")
	}
}

func getHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.veridicaldb_history"
}

// newCompleter creates an auto-completer for the REPL
func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT"),
		readline.PcItem("UPDATE"),
		readline.PcItem("DELETE"),
		readline.PcItem("CREATE",
			readline.PcItem("TABLE"),
			readline.PcItem("INDEX"),
			readline.PcItem("DATABASE"),
		),
		readline.PcItem("DROP",
			readline.PcItem("TABLE"),
			readline.PcItem("INDEX"),
			readline.PcItem("DATABASE"),
		),
		readline.PcItem("USE"),
		readline.PcItem("SHOW",
			readline.PcItem("TABLES"),
			readline.PcItem("DATABASES"),
		),
		readline.PcItem("HELP"),
		readline.PcItem("EXIT"),
		readline.PcItem("QUIT"),
		readline.PcItem("\\dt"),
		readline.PcItem("\\di"),
		readline.PcItem("\\d"),
		readline.PcItem("\\status"),
		readline.PcItem("\\config"),
		readline.PcItem("\\clear"),
		readline.PcItem("\\help"),
		readline.PcItem("\\q"),
	)
}
