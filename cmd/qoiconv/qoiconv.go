package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gammazero/workerpool"
	"golang.org/x/exp/slices"

	"github.com/jkerhin/joe-qoi/qoi"
)

const usage = `Usage: qoiconv <infile> <outfile>
       qoiconv -batch [-to ext] [-workers n] <indir> <outdir>
Examples:
	qoiconv input.png output.qoi
	qoiconv input.qoi output.png
	qoiconv -batch -to qoi ./screenshots ./screenshots-qoi`

var (
	batch   = flag.Bool("batch", false, "convert every supported image in <indir> into <outdir>")
	to      = flag.String("to", "qoi", "target extension in batch mode")
	workers = flag.Int("workers", runtime.NumCPU(), "concurrent conversions in batch mode")
)

var supportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".gif", ".qoi"}

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		printUsage()
		return
	}

	if *batch {
		convertDirectory(flag.Arg(0), flag.Arg(1))
		return
	}

	if err := convertFile(flag.Arg(0), flag.Arg(1)); err != nil {
		log.Fatalf("Could not convert the image: %v", err)
	}
}

func printUsage() {
	fmt.Println(usage)
}

func convertFile(inputFilename, outputFilename string) error {
	inputImg, err := openImage(inputFilename)
	if err != nil {
		return err
	}
	if !isQOIFilename(outputFilename) {
		return writeGenericImage(inputImg, outputFilename)
	}
	return writeQOIImage(inputImg, outputFilename)
}

// convertDirectory fans independent images out over a worker pool. Each
// conversion owns its own encoder state, so whole images are the one safe
// unit of parallelism.
func convertDirectory(inputDir, outputDir string) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		log.Fatalf("Could not read the input directory: %v", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("Could not create the output directory: %v", err)
	}

	targetExt := "." + strings.TrimPrefix(*to, ".")
	pool := workerpool.New(*workers)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		inputFilename := filepath.Join(inputDir, name)
		outputFilename := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+targetExt)
		pool.Submit(func() {
			if err := convertFile(inputFilename, outputFilename); err != nil {
				log.Printf("Skipping %s: %v", inputFilename, err)
			}
		})
	}
	pool.StopWait()
}

func openImage(filename string) (image.Image, error) {
	inputImg, err := imaging.Open(filename)
	checkForUnsupportedFormat(err)
	return inputImg, err
}

func checkForUnsupportedFormat(err error) {
	if errors.Is(err, imaging.ErrUnsupportedFormat) {
		fmt.Println("The only supported formats are png, jpeg, bmp, tiff, gif & qoi")
		os.Exit(1)
	}
}

func isQOIFilename(filename string) bool {
	return strings.HasSuffix(filename, ".qoi")
}

func writeGenericImage(img image.Image, outputFilename string) error {
	err := imaging.Save(img, outputFilename)
	checkForUnsupportedFormat(err)
	return err
}

func writeQOIImage(img image.Image, outputFilename string) error {
	outputFile, err := os.Create(outputFilename)
	if err != nil {
		return err
	}
	defer outputFile.Close()
	return qoi.Encode(outputFile, img)
}
