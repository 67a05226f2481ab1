package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// GetProjectRoot walks up from the working directory until it finds the
// deps.yml manifest (or a .git directory as a fallback).
func GetProjectRoot() (string, error) {
	mypath, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "Failed to retrieve the current working directory")
	}

	for {
		for _, marker := range []string{"deps.yml", ".git"} {
			_, err := os.Stat(filepath.Join(mypath, marker))
			if err == nil {
				return mypath, nil
			}

			if !eris.Is(err, os.ErrNotExist) {
				return "", eris.Wrap(err, "Error ocurred while searching for project root")
			}
		}

		nextPath := filepath.Dir(mypath)
		if mypath == nextPath {
			break
		}
		mypath = nextPath
	}

	return "", eris.New("Project root not found")
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Printf("[red][bold]  ->[reset] %s\n", msg)
}
