// Package main provides the player CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"

	playerv1 "github.com/osa030/deckbox/internal/api/playerv1"
)

var (
	app    = kingpin.New("deckbox-playercli", "deckbox player client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Token for library mutations").Envar("PLAYER_TOKEN").String()

	statusCmd  = app.Command("status", "Show the player state").Default()
	playCmd    = app.Command("play", "Toggle play/pause")
	nextCmd    = app.Command("next", "Skip to the next track")
	prevCmd    = app.Command("prev", "Restart or go to the previous track")
	muteCmd    = app.Command("mute", "Toggle mute")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle")
	repeatCmd  = app.Command("repeat", "Cycle the repeat mode (off, all, one)")
	likeCmd    = app.Command("like", "Like or unlike the current track")

	seekCmd      = app.Command("seek", "Seek within the current track")
	seekPosition = seekCmd.Arg("position", "Position (e.g. 1m30s)").Required().Duration()

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume (0-100)").Required().Int32()

	selectCmd   = app.Command("select", "Play the track at a queue index")
	selectIndex = selectCmd.Arg("index", "Queue index (0-based)").Required().Int32()

	tracksCmd = app.Command("tracks", "List the library")

	deleteCmd = app.Command("delete", "Delete a track")
	deleteID  = deleteCmd.Arg("id", "Track ID").Required().String()

	uploadCmd      = app.Command("upload", "Upload a track")
	uploadAudio    = uploadCmd.Arg("audio", "Audio file").Required().ExistingFile()
	uploadTitle    = uploadCmd.Flag("title", "Track title (default: file name)").String()
	uploadArtist   = uploadCmd.Flag("artist", "Artist name").String()
	uploadAlbum    = uploadCmd.Flag("album", "Album name").String()
	uploadDuration = uploadCmd.Flag("duration", "Track length (e.g. 3m20s)").Duration()
	uploadCover    = uploadCmd.Flag("cover", "Cover image file").ExistingFile()

	reloadCmd = app.Command("reload", "Reload the library")
	watchCmd  = app.Command("watch", "Stream player notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := playerv1.NewClient(http.DefaultClient, *server, *token)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = printState(client.GetState(ctx))
	case playCmd.FullCommand():
		err = printState(client.PlayPause(ctx))
	case nextCmd.FullCommand():
		err = printState(client.Next(ctx))
	case prevCmd.FullCommand():
		err = printState(client.Previous(ctx))
	case muteCmd.FullCommand():
		err = printState(client.ToggleMute(ctx))
	case shuffleCmd.FullCommand():
		err = printState(client.ToggleShuffle(ctx))
	case repeatCmd.FullCommand():
		err = printState(client.CycleRepeat(ctx))
	case likeCmd.FullCommand():
		err = printState(client.ToggleLike(ctx))
	case seekCmd.FullCommand():
		err = printState(client.Seek(ctx, seekPosition.Milliseconds()))
	case volumeCmd.FullCommand():
		err = printState(client.SetVolume(ctx, *volumeLevel))
	case selectCmd.FullCommand():
		err = printState(client.Select(ctx, *selectIndex))
	case tracksCmd.FullCommand():
		err = listTracks(ctx, client)
	case deleteCmd.FullCommand():
		err = client.DeleteTrack(ctx, *deleteID)
		if err == nil {
			fmt.Printf("Deleted %s\n", *deleteID)
		}
	case uploadCmd.FullCommand():
		err = upload(ctx, client)
	case reloadCmd.FullCommand():
		var n int32
		n, err = client.Reload(ctx)
		if err == nil {
			fmt.Printf("Reloaded: %d tracks\n", n)
		}
	case watchCmd.FullCommand():
		err = watch(ctx, client)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func listTracks(ctx context.Context, client *playerv1.Client) error {
	tracks, err := client.ListTracks(ctx)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("Library is empty")
		return nil
	}
	for i, t := range tracks {
		fmt.Printf("%3d  %s  %s - %s [%s]\n", i, t.Id, t.Artist, t.Title, formatMs(t.DurationMs))
	}
	return nil
}

func upload(ctx context.Context, client *playerv1.Client) error {
	audio, err := os.ReadFile(*uploadAudio)
	if err != nil {
		return err
	}

	title := *uploadTitle
	if title == "" {
		base := filepath.Base(*uploadAudio)
		title = base[:len(base)-len(filepath.Ext(base))]
	}

	req := &playerv1.CreateTrackRequest{
		Title:            title,
		Artist:           *uploadArtist,
		Album:            *uploadAlbum,
		DurationMs:       uploadDuration.Milliseconds(),
		AudioName:        filepath.Base(*uploadAudio),
		AudioContentType: mimetype.Detect(audio).String(),
		Audio:            audio,
	}

	if *uploadCover != "" {
		cover, err := os.ReadFile(*uploadCover)
		if err != nil {
			return err
		}
		req.CoverName = filepath.Base(*uploadCover)
		req.CoverContentType = mimetype.Detect(cover).String()
		req.Cover = cover
	}

	t, err := client.CreateTrack(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s: %s - %s\n", t.Id, t.Artist, t.Title)
	return nil
}

func watch(ctx context.Context, client *playerv1.Client) error {
	stream, err := client.Watch(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Watching notifications. Press Ctrl+C to exit.")
	for stream.Receive() {
		n := stream.Msg()
		if n.Type == playerv1.NotificationTypePositionChanged {
			fmt.Printf("\r[%d] %s / %s", n.SequenceNo,
				formatMs(n.State.PositionMs), formatMs(n.State.DurationMs))
			continue
		}
		fmt.Printf("\n[%d] === %s (%s) ===\n", n.SequenceNo, n.Type, n.Intent)
		_ = printState(n.State, nil)
	}

	if ctx.Err() != nil {
		fmt.Println("\nStopped")
		return nil
	}
	return stream.Err()
}

func printState(s *playerv1.State, err error) error {
	if err != nil {
		return err
	}

	status := "⏸  Paused"
	if s.IsPlaying {
		status = "▶️  Playing"
	}
	fmt.Printf("%s  volume=%d muted=%v shuffle=%v repeat=%s\n",
		status, s.Volume, s.IsMuted, s.IsShuffled, s.RepeatMode)

	current := s.Current()
	if current == nil {
		fmt.Println("Queue is empty")
		return nil
	}

	like := ""
	if s.IsLiked {
		like = " ♥"
	}
	fmt.Printf("[%d/%d] %s - %s%s\n", s.CurrentIndex+1, len(s.Tracks), current.Artist, current.Title, like)
	fmt.Printf("  %s / %s\n", formatMs(s.PositionMs), formatMs(s.DurationMs))
	if current.CoverUrl != "" {
		fmt.Printf("  Cover: %s\n", current.CoverUrl)
	}
	return nil
}

func formatMs(ms int64) string {
	d := (time.Duration(ms) * time.Millisecond).Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
