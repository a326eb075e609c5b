package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ayusman/kirana/internal/app"
	"github.com/ayusman/kirana/internal/server"
	"github.com/ayusman/kirana/internal/store"
	"github.com/ayusman/kirana/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "lane camera device ID")
	dbPath := flag.String("db", "", "path to the kiosk database (default ~/.kirana/kirana.db)")
	catalogCSV := flag.String("catalog", "", "import a product catalog CSV before starting")
	qrDir := flag.String("qr-dir", "qr_codes", "directory for generated payment QR images")
	flag.Parse()

	fmt.Println("Kirana - Self-Checkout Kiosk")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	path := *dbPath
	if path == "" {
		dataDir := filepath.Join(homeDir, ".kirana")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		path = filepath.Join(dataDir, "kirana.db")
	}

	st, err := store.New(path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if *catalogCSV != "" {
		f, err := os.Open(*catalogCSV)
		if err != nil {
			log.Fatalf("Failed to open catalog: %v", err)
		}
		count, err := st.Products().ImportCSV(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to import catalog: %v", err)
		}
		fmt.Printf("Imported %d products from %s\n", count, *catalogCSV)
	}

	kiosk := app.New(app.Config{
		Store:    st,
		CameraID: *cameraID,
		QRDir:    *qrDir,
	})
	if err := kiosk.LoadCatalog(); err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	if err := kiosk.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	kiosk.SetEnabled(true)
	defer kiosk.Stop()

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       kiosk,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// The tray owns the main thread until the operator quits.
	t := tray.New()
	t.OnToggle(kiosk.SetEnabled)
	t.OnOpen(func() {
		openBrowser("http://localhost" + *addr)
	})
	t.OnQuit(kiosk.Stop)
	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.kirana/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".kirana", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// openBrowser opens the kiosk screen in the default browser.
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
