// Package review runs the overlay pipeline over every case of a dataset.
package review

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"ctoverlay/internal/models"
	"ctoverlay/pkg/dataset"
	"ctoverlay/pkg/labels"
	"ctoverlay/pkg/mosaic"
	"ctoverlay/pkg/nifti"
	"ctoverlay/pkg/overlay"
	"ctoverlay/pkg/stats"
	"ctoverlay/pkg/visualization"
)

// Params holds the review configuration
type Params struct {
	// Root, ImageDir and MaskDir locate the dataset (see dataset.Index)
	Root     string
	ImageDir string
	MaskDir  string

	// OutputDir receives one mosaic per case; empty disables rendering
	OutputDir string

	// Extension selects the mosaic encoding (".jpg" or ".png")
	Extension string

	Labels *labels.Set
	Alpha  float64

	Cols       int
	DisplayNum int
}

// Renderer turns a mosaic plan into a raster
type Renderer interface {
	Render(plan *mosaic.Plan) (*image.RGBA, error)
}

// CaseResult is the outcome of reviewing one scan/mask pair
type CaseResult struct {
	FileName string
	Shape    models.Shape

	// Plan is the reviewed slice layout
	Plan *mosaic.Plan

	// Volume holds whole-volume statistics per label
	Volume stats.RegionStats

	// OutputPath is the rendered mosaic, empty when rendering is disabled
	OutputPath string
}

// Reviewer loads each case, builds its overlay and renders the mosaic
type Reviewer struct {
	params   *Params
	renderer Renderer
	logger   *logrus.Logger
}

// NewReviewer creates a reviewer. A nil renderer disables rendering.
func NewReviewer(params *Params, renderer Renderer, logger *logrus.Logger) *Reviewer {
	if params.Labels == nil {
		params.Labels = labels.Default()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Reviewer{params: params, renderer: renderer, logger: logger}
}

// Pairs indexes the dataset
func (r *Reviewer) Pairs() ([]dataset.Pair, error) {
	pairs, err := dataset.Index(r.params.Root, r.params.ImageDir, r.params.MaskDir)
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{
		"root":  r.params.Root,
		"cases": len(pairs),
	}).Info("Indexed dataset")
	return pairs, nil
}

// Process reviews every case. A failing case is logged and skipped; the
// returned error joins all case failures.
func (r *Reviewer) Process() ([]*CaseResult, error) {
	pairs, err := r.Pairs()
	if err != nil {
		return nil, fmt.Errorf("failed to index dataset: %w", err)
	}

	var (
		results []*CaseResult
		errs    []error
	)
	for _, pair := range pairs {
		res, err := r.ProcessCase(pair)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"case":  pair.FileName,
				"error": err,
			}).Error("Case failed")
			errs = append(errs, fmt.Errorf("%s: %w", pair.FileName, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// Load decodes the scan and mask of a case and checks they line up
func (r *Reviewer) Load(pair dataset.Pair) (*models.Volume, *models.MaskVolume, error) {
	img, err := nifti.Load(pair.ImagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scan: %w", err)
	}
	mask, err := nifti.LoadMask(pair.MaskPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mask: %w", err)
	}
	if err := overlay.CheckShapes(img.Volume, mask); err != nil {
		return nil, nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"case":   pair.FileName,
		"shape":  img.Volume.Shape.String(),
		"voxels": humanize.Comma(int64(img.Volume.Shape.Voxels())),
		"bytes":  fileSize(pair.ImagePath),
	}).Debug("Loaded case")
	return img.Volume, mask, nil
}

// ProcessCase runs normalize -> colorize -> composite -> plan -> render on
// one pair
func (r *Reviewer) ProcessCase(pair dataset.Pair) (*CaseResult, error) {
	vol, mask, err := r.Load(pair)
	if err != nil {
		return nil, err
	}

	ov, err := r.Overlay(vol, mask)
	if err != nil {
		return nil, err
	}

	plan, err := mosaic.Build(ov, vol, mask, r.params.Labels, r.params.Cols, r.params.DisplayNum)
	if err != nil {
		return nil, fmt.Errorf("failed to plan mosaic: %w", err)
	}

	whole, err := stats.Compute(vol, mask, r.params.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	res := &CaseResult{FileName: pair.FileName, Shape: vol.Shape, Plan: plan, Volume: whole}
	if r.renderer != nil && r.params.OutputDir != "" {
		res.OutputPath, err = r.render(pair.FileName, plan)
		if err != nil {
			return nil, err
		}
	}

	fields := logrus.Fields{
		"case":   pair.FileName,
		"slices": vol.Shape.Depth,
		"tiles":  len(plan.Tiles),
	}
	if res.OutputPath != "" {
		fields["output"] = res.OutputPath
		fields["bytes"] = fileSize(res.OutputPath)
	}
	r.logger.WithFields(fields).Info("Reviewed case")
	return res, nil
}

// Overlay builds the composited overlay volume of a scan and its mask
func (r *Reviewer) Overlay(vol *models.Volume, mask *models.MaskVolume) (*models.RGBVolume, error) {
	gray, err := overlay.Normalize(vol)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize: %w", err)
	}
	color, err := overlay.ColorizeFor(vol, mask, r.params.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to colorize: %w", err)
	}
	ov, err := overlay.Composite(gray, mask, color, r.params.Alpha)
	if err != nil {
		return nil, fmt.Errorf("failed to composite: %w", err)
	}
	return ov, nil
}

// Summarize computes whole-volume statistics of a case without rendering
func (r *Reviewer) Summarize(pair dataset.Pair) (stats.RegionStats, error) {
	vol, mask, err := r.Load(pair)
	if err != nil {
		return nil, err
	}
	return stats.Compute(vol, mask, r.params.Labels)
}

func (r *Reviewer) render(fileName string, plan *mosaic.Plan) (string, error) {
	img, err := r.renderer.Render(plan)
	if err != nil {
		return "", fmt.Errorf("failed to render mosaic: %w", err)
	}

	ext := r.params.Extension
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(r.params.OutputDir, caseName(fileName)+ext)
	if err := visualization.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save mosaic: %w", err)
	}
	return path, nil
}

// caseName strips .nii / .nii.gz from a file name
func caseName(fileName string) string {
	name := strings.TrimSuffix(fileName, ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(info.Size()))
}
