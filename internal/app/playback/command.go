package playback

import (
	"fmt"
	"time"
)

// CommandType represents an adapter command.
type CommandType int

const (
	CommandLoad CommandType = iota
	CommandPlay
	CommandPause
	CommandSeek
	CommandSetVolume
	CommandUnload
)

// String returns the string representation of the command type.
func (c CommandType) String() string {
	switch c {
	case CommandLoad:
		return "load"
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandSeek:
		return "seek"
	case CommandSetVolume:
		return "set_volume"
	case CommandUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// Command is an instruction for the Adapter produced by the reducer.
type Command struct {
	Type     CommandType
	Source   Source        // Load
	Position time.Duration // Seek
	Volume   float64       // SetVolume
}

// String returns a compact description used in logs.
func (c Command) String() string {
	switch c.Type {
	case CommandLoad:
		return fmt.Sprintf("load(%s#%d)", c.Source.TrackID, c.Source.Generation)
	case CommandSeek:
		return fmt.Sprintf("seek(%v)", c.Position)
	case CommandSetVolume:
		return fmt.Sprintf("set_volume(%.2f)", c.Volume)
	default:
		return c.Type.String()
	}
}

func loadCmd(src Source) Command { return Command{Type: CommandLoad, Source: src} }
func playCmd() Command { return Command{Type: CommandPlay} }
func pauseCmd() Command { return Command{Type: CommandPause} }
func seekCmd(position time.Duration) Command { return Command{Type: CommandSeek, Position: position} }
func volumeCmd(fraction float64) Command { return Command{Type: CommandSetVolume, Volume: fraction} }
func unloadCmd() Command { return Command{Type: CommandUnload} }

func hasCommand(cmds []Command, t CommandType) bool {
	for _, c := range cmds {
		if c.Type == t {
			return true
		}
	}
	return false
}
