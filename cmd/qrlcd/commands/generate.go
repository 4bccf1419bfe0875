// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/matrix"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/qr"
	"github.com/yeti-display/qrlcd/cmd/qrlcd/sheet"
)

func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <url> <folder>",
		Short: "Generate QR codes and LCD tables for a URL",
		Long: "Generate a QR code for <url> at every requested symbol version and write, for each\n" +
			"version, the image, the decoded module matrix as a workbook and the MSB2LSB table\n" +
			"the display driver is built with. Files go to <out>/<folder>/qr-v<N>/.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			versions, err := cmd.Flags().GetIntSlice("versions")
			if err != nil {
				return err
			}
			cArray, err := cmd.Flags().GetBool("c-array")
			if err != nil {
				return err
			}
			invert, err := cmd.Flags().GetBool("invert")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}

			g := &generator{
				URL:      args[0],
				Folder:   args[1],
				Out:      out,
				Versions: versions,
				CArray:   cArray,
				Invert:   invert,
				Verbose:  verbose,
				Stdout:   cmd.OutOrStdout(),
				Log:      GetLogger(cmd.Context()),
				Progress: isTerminal(os.Stderr),
			}
			manifest, err := g.Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(g.Stdout, "Wrote %d versions to '%s'\n", len(manifest.Versions), filepath.Join(out, args[1]))
			return nil
		},
	}

	cmd.Flags().String("out", "..", "directory the <folder> is created in")
	cmd.Flags().IntSlice("versions", qr.Versions, "QR symbol versions to generate")
	cmd.Flags().Bool("c-array", false, "also write a qr_code_t initializer per version")
	cmd.Flags().Bool("invert", false, "store light modules as set bits")
	return cmd
}

// Manifest records the artifacts of one generate run.
type Manifest struct {
	RunID    string          `yaml:"run_id" json:"run_id"`
	URL      string          `yaml:"url" json:"url"`
	Folder   string          `yaml:"folder" json:"folder"`
	Created  time.Time       `yaml:"created" json:"created"`
	Inverted bool            `yaml:"inverted" json:"inverted"`
	Versions []VersionOutput `yaml:"versions" json:"versions"`
}

type VersionOutput struct {
	Version  int    `yaml:"version" json:"version"`
	Modules  int    `yaml:"modules" json:"modules"`
	Decoded  string `yaml:"decoded" json:"decoded"`
	Image    string `yaml:"image" json:"image"`
	Workbook string `yaml:"workbook" json:"workbook"`
	Table    string `yaml:"table" json:"table"`
	Header   string `yaml:"header,omitempty" json:"header,omitempty"`
}

type generator struct {
	URL      string
	Folder   string
	Out      string
	Versions []int
	CArray   bool
	Invert   bool
	Verbose  bool
	Progress bool

	Stdout io.Writer
	Log    logrus.FieldLogger
}

func (g *generator) Run() (*Manifest, error) {
	if len(g.Versions) == 0 {
		return nil, fmt.Errorf("no versions to generate")
	}
	for _, v := range g.Versions {
		if err := qr.CheckVersion(v); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{
		RunID:    uuid.New().String(),
		URL:      g.URL,
		Folder:   g.Folder,
		Created:  time.Now().UTC(),
		Inverted: g.Invert,
	}
	log := g.Log.WithField("run", manifest.RunID)

	var bar *pb.ProgressBar
	if g.Progress {
		bar = pb.New(len(g.Versions))
		bar.SetWriter(os.Stderr)
		bar.Start()
	}
	for _, v := range g.Versions {
		res, err := g.version(v, log)
		if err != nil {
			if bar != nil {
				bar.Finish()
			}
			return nil, fmt.Errorf("V%d: %w", v, err)
		}
		manifest.Versions = append(manifest.Versions, *res)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	path := filepath.Join(g.Out, g.Folder, directory.ManifestFile)
	b, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	log.WithField("path", path).Debug("wrote manifest")
	return manifest, nil
}

func (g *generator) version(v int, log logrus.FieldLogger) (*VersionOutput, error) {
	log = log.WithField("version", v)
	dir := directory.VersionDir(g.Out, g.Folder, v)
	existed, err := directory.EnsureVersionDir(dir)
	if err != nil {
		return nil, err
	}
	if existed {
		fmt.Fprintf(g.Stdout, "Directory '%s' already exists\n", dir)
		log.WithField("dir", dir).Info("reusing directory")
	} else {
		fmt.Fprintf(g.Stdout, "Directory '%s' created\n", dir)
	}

	out := &VersionOutput{
		Version:  v,
		Modules:  qr.SizeOf(v),
		Image:    directory.VersionFile(dir, v, "png"),
		Workbook: directory.VersionFile(dir, v, "xlsx"),
		Table:    directory.VersionFile(dir, v, "txt"),
	}

	if err := qr.Generate(g.URL, v, out.Image, qr.DefaultOptions()); err != nil {
		if errors.Is(err, qr.ErrTooLong) {
			if fit, ferr := qr.FitVersion(g.URL); ferr == nil {
				return nil, fmt.Errorf("%w, use --versions %d or higher", err, fit)
			}
		}
		return nil, err
	}
	res, err := qr.Decode(out.Image)
	if err != nil {
		return nil, err
	}
	if res.Version != v {
		return nil, fmt.Errorf("decoded a version %d symbol", res.Version)
	}
	out.Decoded = res.Text
	fmt.Fprintf(g.Stdout, "V%d decoded: %s\n", v, res.Text)

	m := res.DisplayMatrix()
	// The area around the symbol has to stay light, so padding happens
	// before the inversion.
	padded, err := m.Pad(matrix.Size)
	if err != nil {
		return nil, err
	}
	if g.Invert {
		m = m.Invert()
		padded = padded.Invert()
	}
	if err := sheet.Export(out.Workbook, m); err != nil {
		return nil, err
	}

	pages, err := padded.Pack()
	if err != nil {
		return nil, err
	}
	if g.Verbose {
		for p, page := range pages {
			for c, b := range page {
				fmt.Fprintf(g.Stdout, "page %d column %2d: %s %s\n", p, c, matrix.BitString(b), matrix.Hex(b))
			}
		}
	}
	if err := os.WriteFile(out.Table, []byte(matrix.FormatTokens(pages)), 0644); err != nil {
		return nil, err
	}

	if g.CArray {
		out.Header = directory.VersionFile(dir, v, "h")
		name := fmt.Sprintf("qr_code_v%d", v)
		if err := os.WriteFile(out.Header, []byte(matrix.FormatCArray(name, pages)), 0644); err != nil {
			return nil, err
		}
	}
	log.WithField("dir", dir).Debug("generated")
	return out, nil
}
