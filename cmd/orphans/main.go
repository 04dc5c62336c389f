package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var imageRefPattern = regexp.MustCompile(`images/(image_\d+_\d+\.[A-Za-z0-9]+)`)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: orphans <list|remove> <clips-directory>")
	}

	command := os.Args[1]
	clipsDir := os.Args[2]

	orphans, err := findOrphans(clipsDir)
	if err != nil {
		log.Fatal(err)
	}

	switch command {
	case "list":
		for _, name := range orphans {
			fmt.Println(name)
		}
		fmt.Printf("\n%d unreferenced images\n", len(orphans))
	case "remove":
		removed := removeOrphans(bufio.NewReader(os.Stdin), os.Stdout, filepath.Join(clipsDir, "images"), orphans)
		fmt.Printf("\nRemoved %d unreferenced images\n", removed)
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

// findOrphans returns image files under <clipsDir>/images that no Markdown
// file references, sorted by name
func findOrphans(clipsDir string) ([]string, error) {
	referenced, err := referencedImages(clipsDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(clipsDir, "images"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading images directory: %w", err)
	}

	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "image_") {
			continue
		}
		if !referenced[entry.Name()] {
			orphans = append(orphans, entry.Name())
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

func referencedImages(clipsDir string) (map[string]bool, error) {
	referenced := make(map[string]bool)

	err := filepath.WalkDir(clipsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on errors
		}

		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			content, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Error reading %s: %v", path, err)
				return nil
			}
			for _, m := range imageRefPattern.FindAllStringSubmatch(string(content), -1) {
				referenced[m[1]] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return referenced, nil
}

func removeOrphans(reader *bufio.Reader, out io.Writer, imagesDir string, orphans []string) int {
	removed := 0
	for _, name := range orphans {
		path := filepath.Join(imagesDir, name)
		if !confirmDelete(reader, out, path) {
			fmt.Fprintf(out, "  SKIP: %s\n", name)
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("Error removing %s: %v", path, err)
			continue
		}
		removed++
		fmt.Fprintf(out, "  REMOVED: %s\n", name)
	}
	return removed
}

func confirmDelete(reader *bufio.Reader, out io.Writer, path string) bool {
	for {
		fmt.Fprintf(out, "  DELETE %s? [y/N]: ", filepath.Base(path))
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			if err != io.EOF {
				log.Printf("Error reading input: %v", err)
			}
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Fprintln(out, "  Please enter y or n.")
		}
	}
}
