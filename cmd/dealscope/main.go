package main

import (
	"fmt"
	"os"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	settingsPath := getEnv("DEALSCOPE_SETTINGS_DSN", "dealscope.db")
	layoutPath := getEnv("DEALSCOPE_LAYOUT", "layout.yaml")

	subcommand := os.Args[1]

	switch subcommand {
	case "annotate":
		handleAnnotate(settingsPath, layoutPath, os.Args[2:])
	case "watch":
		handleWatch(settingsPath, layoutPath, os.Args[2:])
	case "settings":
		if len(os.Args) < 3 {
			printSettingsUsage()
			os.Exit(1)
		}
		handleSettings(os.Args[2], settingsPath, os.Args[3:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("dealscope - deal-quality annotation for vehicle-listing pages")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dealscope <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  annotate <file.html>   Run one annotation pass over an HTML document")
	fmt.Println("  watch <file.html>      Re-annotate continuously as the document changes")
	fmt.Println("  settings <action>      Manage scoring parameters (get, set, list)")
	fmt.Println("  help                   Show this help")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  DEALSCOPE_SETTINGS_DSN   Settings database path (default: dealscope.db)")
	fmt.Println("  DEALSCOPE_LAYOUT         Layout profile YAML (default: layout.yaml; optional)")
}

func printSettingsUsage() {
	fmt.Println("Usage:")
	fmt.Println("  dealscope settings list")
	fmt.Println("  dealscope settings get <key>")
	fmt.Println("  dealscope settings set <key> <value>")
}
