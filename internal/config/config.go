package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

type Config struct {
	HTTPAddr      string
	BoardSize     int
	InitialPlayer string
	AI            string
	AISide        string
	WarmTrees     bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func Load() Config {
	return Config{
		HTTPAddr:      getenv("ADDR", ":8080"),
		BoardSize:     getenvInt("BOARD_SIZE", 3),
		InitialPlayer: strings.ToUpper(getenv("INITIAL_PLAYER", "X")),
		AI:            strings.ToLower(getenv("AI", "tree")),
		AISide:        strings.ToUpper(getenv("AI_SIDE", "O")),
		WarmTrees:     getenvBool("WARM_TREES", true),
	}
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	if err := domain.CheckSize(c.BoardSize); err != nil {
		return fmt.Errorf("BOARD_SIZE: %w", err)
	}
	for key, v := range map[string]string{"INITIAL_PLAYER": c.InitialPlayer, "AI_SIDE": c.AISide} {
		if v != "X" && v != "O" {
			return fmt.Errorf("%s must be X or O, got %q", key, v)
		}
	}
	switch c.AI {
	case "none", "rules", "tree":
	default:
		return fmt.Errorf("AI must be none, rules or tree, got %q", c.AI)
	}
	if c.AI == "tree" && c.BoardSize > 3 {
		return fmt.Errorf("AI=tree supports boards up to 3x3, got %d", c.BoardSize)
	}
	return nil
}
