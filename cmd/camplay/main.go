package main

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"

	"github.com/ayusman/camplay/internal/action"
	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/config"
	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/drawing"
	"github.com/ayusman/camplay/internal/emotion"
	"github.com/ayusman/camplay/internal/game"
	"github.com/ayusman/camplay/internal/gesture"
	"github.com/ayusman/camplay/internal/recognize"
	"github.com/ayusman/camplay/internal/server"
	"github.com/ayusman/camplay/internal/store"
	"github.com/ayusman/camplay/internal/tray"
)

func main() {
	fmt.Println("Camplay - Camera Mini-Game Server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	broadcaster := broadcast.New(cfg.QueueCapacity)

	// The landmark detectors run MediaPipe in a helper process. When that
	// is not installed the games that need it report unavailable instead
	// of failing the whole server.
	var hands detector.HandDetector
	if h, err := detector.NewMediaPipeHands(detector.DefaultConfig()); err != nil {
		log.Printf("Hand detector unavailable: %v", err)
	} else {
		hands = h
		defer h.Close()
	}

	var faces detector.FaceDetector
	if f, err := detector.NewMediaPipeFaceMesh(); err != nil {
		log.Printf("Face detector unavailable: %v", err)
	} else {
		faces = f
		defer f.Close()
	}

	recognizer := recognize.NewHandRecognizer(hands)
	camera := capture.NewCamera(cfg.CameraID)

	gameCfg := game.Config{
		CountdownTicks: cfg.CountdownTicks,
		TickInterval:   cfg.TickInterval,
		InputWait:      cfg.InputWait,
		PollInterval:   cfg.PollInterval,
	}
	rps := game.New(gameCfg, broadcaster, recognizer, nil, st)

	gestureSvc := gesture.New(gesture.Config{
		BroadcastInterval: cfg.BroadcastInterval,
	}, broadcaster, recognizer, camera)

	actionSvc := action.New(action.Config{}, broadcaster, faces, camera, st)
	emotionSvc := emotion.New(emotion.Config{
		BroadcastInterval: cfg.BroadcastInterval,
	}, broadcaster, faces, camera)

	drawingSvc := drawing.New(drawing.Config{
		RecognitionInterval: cfg.RecognitionInterval,
	}, broadcaster, hands, camera)

	srv := server.New(server.Config{
		AllowedOrigin:       cfg.AllowedOrigin,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Broadcaster:         broadcaster,
		Game:                rps,
		Recognizer:          recognizer,
		Gesture:             gestureSvc,
		Action:              actionSvc,
		Emotion:             emotionSvc,
		Drawing:             drawingSvc,
		Hands:               hands,
		Store:               st,
	})

	if cfg.Tray {
		runWithTray(srv, cfg.Addr)
		return
	}

	fmt.Printf("Starting server on %s\n", cfg.Addr)
	if err := srv.ListenAndServe(cfg.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// runWithTray serves in the background and blocks on the tray loop, which
// owns the process lifetime.
func runWithTray(srv *server.Server, addr string) {
	go func() {
		fmt.Printf("Starting server on %s\n", addr)
		if err := srv.ListenAndServe(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	t := tray.New()
	t.OnOpen(func() {
		if err := openBrowser("http://localhost" + addr); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.Run()
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
