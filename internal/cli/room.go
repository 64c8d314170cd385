package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomPlayersCmd())
	cmd.AddCommand(newRoomStartCmd())
	cmd.AddCommand(newRoomAdvanceCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var name string
	var maxPlayers int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room and become its host",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			var result JoinResult
			body := map[string]any{"host_name": name, "max_players": maxPlayers}
			if err := client.Post("/api/v1/rooms", body, &result); err != nil {
				return err
			}

			if err := cfg.SaveState(State{
				RoomCode: result.Room.Code,
				PlayerID: result.Player.ID,
				Name:     result.Player.Name,
			}); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your player name")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 4, "Room capacity")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [code]",
		Short: "Show a room's state, roster, and active question",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := resolveCode(args)
			if err != nil {
				return err
			}

			var result RoomState
			if err := client.Get("/api/v1/rooms/"+code, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a waiting room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			code := normalizeCode(args[0])

			var result JoinResult
			body := map[string]any{"name": name}
			if err := client.Post("/api/v1/rooms/"+code+"/join", body, &result); err != nil {
				return err
			}

			if err := cfg.SaveState(State{
				RoomCode: result.Room.Code,
				PlayerID: result.Player.ID,
				Name:     result.Player.Name,
			}); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your player name")

	return cmd
}

func newRoomPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players [code]",
		Short: "List a room's players by score",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := resolveCode(args)
			if err != nil {
				return err
			}

			var result []Player
			if err := client.Get("/api/v1/rooms/"+code+"/players", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomStartCmd() *cobra.Command {
	var playerID string

	cmd := &cobra.Command{
		Use:   "start [code]",
		Short: "Start the game (host only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := resolveCode(args)
			if err != nil {
				return err
			}
			pid, err := resolvePlayerID(playerID)
			if err != nil {
				return err
			}

			var result Room
			body := map[string]any{"player_id": pid}
			if err := client.Post("/api/v1/rooms/"+code+"/start", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player ID (defaults to saved state)")

	return cmd
}

func newRoomAdvanceCmd() *cobra.Command {
	var playerID string

	cmd := &cobra.Command{
		Use:   "advance [code]",
		Short: "Activate the next question",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := resolveCode(args)
			if err != nil {
				return err
			}
			pid, err := resolvePlayerID(playerID)
			if err != nil {
				return err
			}

			var result Room
			body := map[string]any{"player_id": pid}
			if err := client.Post("/api/v1/rooms/"+code+"/advance", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player ID (defaults to saved state)")

	return cmd
}

// resolveCode takes the code from args or falls back to the saved state
func resolveCode(args []string) (string, error) {
	if len(args) > 0 {
		return normalizeCode(args[0]), nil
	}
	state, err := cfg.LoadState()
	if err != nil {
		return "", err
	}
	if state.RoomCode == "" {
		return "", fmt.Errorf("no room code given and none saved; pass a code or join a room first")
	}
	return state.RoomCode, nil
}

// resolvePlayerID takes the flag value or falls back to the saved state
func resolvePlayerID(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	state, err := cfg.LoadState()
	if err != nil {
		return "", err
	}
	if state.PlayerID == "" {
		return "", fmt.Errorf("no player ID given and none saved; pass --player or join a room first")
	}
	return state.PlayerID, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
