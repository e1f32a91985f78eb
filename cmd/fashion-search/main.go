package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"math/rand/v2"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	fashionsearch "github.com/menta2k/fashion-search"
	"github.com/menta2k/fashion-search/internal/backend"
	"github.com/menta2k/fashion-search/internal/config"
	"github.com/menta2k/fashion-search/internal/utils"
	"github.com/menta2k/fashion-search/pkg/capture"
	"github.com/menta2k/fashion-search/pkg/cropper"
	"github.com/menta2k/fashion-search/pkg/processing"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/search"
)

func main() {
	var in, outDir, text, frame, sel, ext string
	var configPath, backendName, url, model, itemType string
	var quality int
	var seed uint64
	var debug, camera, asJSON bool

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp/gif)")
	flag.StringVar(&text, "text", "", "text description to search for")
	flag.StringVar(&frame, "frame", "", "display container size WxH (default: the image's natural size)")
	flag.StringVar(&sel, "sel", "", "selection in container pixels x,y,w,h (default: whole image)")
	flag.StringVar(&itemType, "type", "", "force every result to one item type")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&ext, "ext", "", "preview format: jpg|png|webp (default from config)")
	flag.IntVar(&quality, "quality", 0, "preview quality (default from config)")

	flag.StringVar(&configPath, "config", config.GetConfigPath(), "config file")
	flag.StringVar(&backendName, "backend", "", "analyzer: heuristic, ollama or llamacpp")
	flag.StringVar(&url, "url", "", "vision server URL")
	flag.StringVar(&model, "model", "", "vision model name")

	flag.Uint64Var(&seed, "seed", 0, "seed for reproducible results (0 = random)")
	flag.BoolVar(&camera, "camera", false, "treat the input as a camera still (JPEG snapshot)")
	flag.BoolVar(&debug, "debug", false, "write the selection overlay image")
	flag.BoolVar(&asJSON, "json", false, "print results as JSON")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if in == "" && strings.TrimSpace(text) == "" {
		log.Fatalf("usage: %s -in photo.jpg|URL [-frame 600x400 -sel x,y,w,h] [-text \"red dress\"] [-backend heuristic|ollama|llamacpp] [-out outdir] [-seed 42]", filepath.Base(os.Args[0]))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if backendName != "" {
		cfg.Vision.Backend = strings.ToLower(backendName)
	}
	if url != "" {
		cfg.Vision.URL = url
	}
	if model != "" {
		cfg.Vision.Model = model
	}
	if ext != "" {
		cfg.Region.PreviewFormat = ext
	}
	if quality > 0 {
		cfg.Region.PreviewQuality = quality
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := backend.New(cfg.Vision, log)
	if err != nil {
		log.Fatal(err)
	}
	if analyzer.Client != nil {
		if err := analyzer.Client.Ping(ctx); err != nil {
			log.WithError(err).Warn("vision backend unreachable, heuristic analysis will be used")
		}
	}

	engineCfg := search.Config{
		MinResults: cfg.Search.MinResults,
		MaxResults: cfg.Search.MaxResults,
	}
	if seed != 0 {
		engineCfg.Rand = rand.New(rand.NewPCG(seed, seed))
	}

	fs := fashionsearch.NewWithConfig(fashionsearch.Config{
		Preview: cropper.PreviewConfig{BoxSize: cfg.Region.PreviewBox},
		Engine:  engineCfg,
		Session: search.SessionConfig{
			Fallback: cfg.Search.FallbackQuery,
			Sleeper:  search.NoDelay,
			Logger:   log,
		},
		Vision:  analyzer,
		MinDrag: cfg.Region.MinDrag,
		Logger:  log,
	})

	req := search.Request{Text: text, ItemType: itemType}
	processor := processing.NewProcessor()

	if in != "" {
		if err := utils.EnsureDir(outDir); err != nil {
			log.Fatal(err)
		}

		img, err := loadInput(ctx, fs, processor, in, camera, log)
		if err != nil {
			log.Fatal(err)
		}
		req.Image = img

		info := fs.GetImageInfo(img)
		log.WithFields(logrus.Fields{
			"width":  info.Width,
			"height": info.Height,
			"ratio":  fmt.Sprintf("%.2f", info.AspectRatio),
		}).Info("image loaded")

		if sel != "" {
			selection, err := selectRegion(fs, img, frame, sel)
			if err != nil {
				log.Fatal(err)
			}
			req.Region = &selection.Region
			log.WithFields(logrus.Fields{
				"x": selection.Region.X, "y": selection.Region.Y,
				"w": selection.Region.Width, "h": selection.Region.Height,
			}).Info("selection mapped to image")

			if selection.Preview != nil {
				path := utils.GenerateOutputFilename(in, outDir, "", "_preview", cfg.Region.PreviewFormat)
				if err := processor.SaveImage(selection.Preview.Image, path, cfg.Region.PreviewFormat, cfg.Region.PreviewQuality, false); err != nil {
					log.WithError(err).Error("save preview failed")
				} else {
					log.Infof("wrote %s", path)
				}
			}

			if debug {
				overlay := processor.CreateSelectionOverlay(img, selection.Region)
				path := utils.GenerateOutputFilename(in, outDir, "", "_selection", "png")
				if err := processor.SaveImage(overlay, path, "png", 0, false); err != nil {
					log.WithError(err).Error("save overlay failed")
				} else {
					log.Infof("wrote %s", path)
				}
			}
		}
	}

	state, err := fs.Search(ctx, req)
	if err != nil {
		log.Fatalf("%s (%v)", search.FailureMessage, err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			log.Fatal(err)
		}
	} else {
		printResults(state)
	}

	if in != "" {
		js, _ := json.MarshalIndent(state, "", "  ")
		path := filepath.Join(outDir, "results.json")
		if err := os.WriteFile(path, js, 0o644); err != nil {
			log.WithError(err).Error("save results failed")
		}
	}
}

// loadInput reads a local file through the upload validation path or
// downloads a URL. With camera set the image goes through a snapshot.
func loadInput(ctx context.Context, fs *fashionsearch.FashionSearch, p *processing.Processor, in string, camera bool, log logrus.FieldLogger) (image.Image, error) {
	var img image.Image

	if utils.FileExists(in) {
		if !utils.IsImageFile(in) {
			log.Warnf("%s does not have an image extension", in)
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, err
		}
		log.Debugf("read %s (%s)", in, utils.FormatFileSize(int64(len(data))))

		contentType := mime.TypeByExtension("." + utils.GetFileExtension(in))
		if contentType == "" {
			contentType = "image/" + utils.GetFileExtension(in)
		}
		up, err := fs.Upload(contentType, data)
		if err != nil {
			return nil, err
		}
		img = up.Image
	} else {
		loaded, err := p.LoadImageSmart(in)
		if err != nil {
			return nil, err
		}
		img = loaded
	}

	if camera {
		snap, err := fs.Snapshot(ctx, capture.StillDevice{Image: img})
		if err != nil {
			return nil, err
		}
		img = snap.Image
	}
	return img, nil
}

func selectRegion(fs *fashionsearch.FashionSearch, img image.Image, frame, sel string) (fashionsearch.Selection, error) {
	b := img.Bounds()
	cw, ch := float64(b.Dx()), float64(b.Dy())
	if frame != "" {
		var err error
		if cw, ch, err = utils.ParseSize(frame); err != nil {
			return fashionsearch.Selection{}, err
		}
	}

	x, y, w, h, err := utils.ParseRect(sel)
	if err != nil {
		return fashionsearch.Selection{}, err
	}
	return fs.Select(img, region.ScreenRegion{X: x, Y: y, Width: w, Height: h}, cw, ch)
}

func printResults(state search.State) {
	fmt.Println(state.Label)
	if state.ItemType != "" {
		fmt.Printf("Filtered to: %s\n", state.ItemType)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tTITLE\tPRICE\tSTORE\tIMAGE")
	for _, r := range state.Results {
		fmt.Fprintf(tw, "%d%%\t%s\t$%s\t%s\t%s\n", r.Similarity, r.Title, r.Price, r.Store, r.ImageURL)
	}
	tw.Flush()
}
