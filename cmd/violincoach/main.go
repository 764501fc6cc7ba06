package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/askumar/violincoach/internal/app"
	"github.com/askumar/violincoach/internal/config"
	"github.com/askumar/violincoach/internal/pose"
	"github.com/askumar/violincoach/internal/server"
	"github.com/askumar/violincoach/internal/store"
	"github.com/askumar/violincoach/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("ViolinCoach - Violin Practice Coach")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(cfg.DataDir, "violincoach.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:        st,
		CameraID:     cfg.Camera.DeviceID,
		IdleFPS:      cfg.Camera.IdleFPS,
		ActiveFPS:    cfg.Camera.ActiveFPS,
		MotionThresh: cfg.Camera.MotionPct,
		Pose: pose.Config{
			ModelComplexity: cfg.Pose.ModelComplexity,
			MinConfidence:   cfg.Pose.MinConfidence,
			MinTrackingConf: cfg.Pose.MinTrackingConf,
		},
	})

	if err := a.LoadCalibration(); err != nil {
		log.Printf("Failed to load calibration: %v", err)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer a.Stop()
	a.SetEnabled(true)

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
	})

	fmt.Printf("Starting server on %s\n", cfg.Server.Bind)
	go func() {
		if err := srv.ListenAndServe(cfg.Server.Bind); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *headless {
		select {}
	}

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() {
		openBrowser("http://localhost" + cfg.Server.Bind)
	})
	t.OnQuit(a.Stop)

	// Mirror the latest feedback onto the tray menu
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			fb := a.Snapshot()
			t.SetDirection(fb.Direction.String())
			t.SetPosture(fb.PostureStatus.String())
		}
	}()

	t.Run()
}

// findWebDir searches for the web directory in common locations.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
