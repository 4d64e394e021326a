// Package main provides the entry point for the Moulding Cropper application.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"moulding-cropper/internal/config"
	"moulding-cropper/internal/detect"
	"moulding-cropper/internal/extract"
	"moulding-cropper/internal/logger"
	"moulding-cropper/internal/project"
	"moulding-cropper/internal/session"
	"moulding-cropper/internal/version"
	"moulding-cropper/ui/editor"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const appTitle = "Moulding Cropper"

// document bundles one uploaded bitmap with its session and editor.
type document struct {
	path   string
	mat    gocv.Mat
	bitmap image.Image
	sess   *session.Session
	editor *editor.Editor
}

func main() {
	mode := flag.String("mode", "catalog", "input kind: catalog or screenshot")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("moulding-cropper %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		return
	}

	cfg := config.Load()
	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [-mode catalog|screenshot] image...\n", os.Args[0])
		os.Exit(1)
	}
	if len(paths) > cfg.MaxSessions {
		log.Warnw("too many images, truncating batch", "max", cfg.MaxSessions)
		paths = paths[:cfg.MaxSessions]
	}

	pool, err := detect.NewPool(cfg.RecognizerPoolSize, func() (detect.Recognizer, error) {
		return detect.NewTesseract()
	})
	if err != nil {
		log.Fatalw("failed to build recognizer pool", "error", err)
	}
	defer pool.Close()

	detector := detect.NewEngine(pool, log)
	extractor := extract.NewEngine(cfg.OutputDir, cfg.VendorPrefixes, log)
	registry := session.NewRegistry(cfg.MaxSessions)

	detectMode := detect.ModeCatalog
	if *mode == "screenshot" {
		detectMode = detect.ModeScreenshot
	}

	docs := openDocuments(paths, registry, detector, detectMode, log)
	if len(docs) == 0 {
		log.Fatal("no readable images")
	}
	defer func() {
		for _, d := range docs {
			d.mat.Close()
		}
	}()

	runUI(docs, extractor, log)
}

// openDocuments loads each bitmap, opens its session, and seeds it from
// detection. Detection faults fall back to placeholder seeding.
func openDocuments(paths []string, registry *session.Registry, detector *detect.Engine,
	mode detect.Mode, log *zap.SugaredLogger) []*document {

	var docs []*document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnw("unreadable image, skipping", "path", path, "error", err)
			continue
		}
		bitmap, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			log.Warnw("undecodable image, skipping", "path", path, "error", err)
			continue
		}

		mat, err := gocv.IMDecode(data, gocv.IMReadColor)
		if err != nil || mat.Empty() {
			log.Warnw("undecodable image, skipping", "path", path, "error", err)
			continue
		}

		sess := registry.Open(path, mat.Cols(), mat.Rows())

		// A saved layout next to the bitmap beats re-running detection.
		if layout, err := project.Load(project.PathFor(path)); err == nil && len(layout.Boxes) > 0 {
			layout.Apply(sess)
			log.Infow("resumed saved layout", "path", path, "boxes", len(layout.Boxes))
		} else {
			var cands []detect.Candidate
			if result, err := detector.Detect(context.Background(), mat, mode); err == nil {
				cands = result.Candidates
			}
			if mode == detect.ModeScreenshot {
				detect.SeedScreenshot(sess, cands)
			} else {
				detect.SeedCatalog(sess, cands)
			}
		}

		docs = append(docs, &document{
			path:   path,
			mat:    mat,
			bitmap: bitmap,
			sess:   sess,
			editor: editor.New(sess, bitmap),
		})
	}
	return docs
}

// runUI builds the window: tabbed editors, a thumbnail strip, and the save
// action.
func runUI(docs []*document, extractor *extract.Engine, log *zap.SugaredLogger) {
	a := fyneapp.New()
	w := a.NewWindow(appTitle)

	status := widget.NewLabel("")
	setStatus := func(msg string) { status.SetText(msg) }

	tabs := container.NewAppTabs()
	for _, d := range docs {
		d.editor.OnStatus = setStatus
		tabs.Append(container.NewTabItem(d.path, d.editor))
	}
	tabs.OnSelected = func(item *container.TabItem) {
		// Focus change resets zoom and pan.
		for _, d := range docs {
			if d.editor == item.Content {
				d.editor.ResetView()
				w.Canvas().Focus(d.editor)
			}
		}
	}

	thumbs := container.NewVBox()
	for _, d := range docs {
		img := fynecanvas.NewImageFromImage(editor.Thumbnail(d.bitmap, 160, 120))
		img.FillMode = fynecanvas.ImageFillOriginal
		thumbs.Add(img)
	}

	addBtn := widget.NewButton("Add Box", func() {
		if d := currentDoc(docs, tabs); d != nil {
			d.editor.AddBox()
		}
	})

	saveBtn := widget.NewButton("Save Crops", func() {
		saveAll(docs, extractor, setStatus, log)
	})

	layoutBtn := widget.NewButton("Save Layout", func() {
		d := currentDoc(docs, tabs)
		if d == nil {
			return
		}
		path := project.PathFor(d.path)
		f := project.New()
		f.SetImage(path, d.path)
		f.Capture(d.sess)
		if err := f.Save(path); err != nil {
			log.Warnw("failed to save layout", "path", path, "error", err)
			setStatus("layout save failed")
			return
		}
		setStatus(fmt.Sprintf("layout saved to %s", path))
	})

	toolbar := container.NewHBox(addBtn, layoutBtn, saveBtn)
	w.SetContent(container.NewBorder(toolbar, status, thumbs, nil, tabs))
	w.Resize(fyne.NewSize(1200, 800))

	if len(docs) > 0 {
		w.Canvas().Focus(docs[0].editor)
	}
	w.ShowAndRun()
}

// saveAll extracts every document sequentially in upload order. The batch
// stops at the first document that fails validation, and the status text
// distinguishes partial from total failure.
func saveAll(docs []*document, extractor *extract.Engine, setStatus func(string), log *zap.SugaredLogger) {
	total := 0
	for i, d := range docs {
		if d.mat.Empty() {
			log.Warnw("save aborted, image no longer readable", "path", d.path)
			setStatus(fmt.Sprintf("save failed at %s (%d crops written before abort)", d.path, total))
			return
		}

		boxes := make([]extract.Box, 0, d.sess.Len())
		for _, b := range d.sess.Boxes() {
			if b.Label == "" {
				continue
			}
			boxes = append(boxes, extract.Box{
				X:            int(b.X),
				Y:            int(b.Y),
				Width:        int(b.Width),
				Height:       int(b.Height),
				Rotation:     b.Rotation,
				ItemNumber:   b.Label,
				FlipVertical: b.FlipVertical,
			})
		}

		crops := extractor.ExtractAll(d.mat, boxes, "")
		total += len(crops)
		log.Infow("extracted", "path", d.path, "index", i, "boxes", len(boxes), "crops", len(crops))
	}
	setStatus(fmt.Sprintf("saved %d crops", total))
}

func currentDoc(docs []*document, tabs *container.AppTabs) *document {
	item := tabs.Selected()
	if item == nil {
		return nil
	}
	for _, d := range docs {
		if d.editor == item.Content {
			return d
		}
	}
	return nil
}
