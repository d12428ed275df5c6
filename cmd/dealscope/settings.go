package main

import (
	"fmt"
	"os"

	"github.com/dealscope/dealscope/settings"
)

func handleSettings(action, settingsPath string, args []string) {
	store, err := settings.NewStore(settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open settings store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch action {
	case "list":
		handleSettingsList(store)
	case "get":
		if len(args) != 1 {
			printSettingsUsage()
			os.Exit(1)
		}
		handleSettingsGet(store, args[0])
	case "set":
		if len(args) != 2 {
			printSettingsUsage()
			os.Exit(1)
		}
		handleSettingsSet(store, args[0], args[1])
	case "help", "--help", "-h":
		printSettingsUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown settings command: %s\n\n", action)
		printSettingsUsage()
		os.Exit(1)
	}
}

func handleSettingsList(store *settings.Store) {
	for _, key := range settings.KnownKeys() {
		value, ok, err := store.Get(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if ok {
			fmt.Printf("%-28s %s\n", key, value)
		} else {
			fmt.Printf("%-28s (default)\n", key)
		}
	}
}

func handleSettingsGet(store *settings.Store, key string) {
	value, ok, err := store.Get(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("%s is unset (default applies)\n", key)
		return
	}
	fmt.Println(value)
}

func handleSettingsSet(store *settings.Store, key, value string) {
	if err := store.Put(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}
