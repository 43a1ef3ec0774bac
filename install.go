package pyextci

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

var extensionModuleSuffixes = map[string]struct{}{
	".so":    {},
	".pyd":   {},
	".dylib": {},
}

// finalizeExtensionModules copies compiled extension modules into the
// directories the interpreter imports from and returns their paths relative
// to the project root. If no native modules are present, the original build
// outputs are returned relative to the project root.
func finalizeExtensionModules(config *BuildConfig, entryFile, entryDir string, built []string) ([]string, error) {
	if len(built) == 0 {
		return nil, nil
	}

	var hasNative bool
	for _, rel := range built {
		if isExtensionModule(rel) {
			hasNative = true
			break
		}
	}

	if !hasNative {
		return makeProjectRelative(config.ProjectDir, entryFile, built), nil
	}

	primaryDest, extraDests := installTargets(config)
	if primaryDest == "" {
		return makeProjectRelative(config.ProjectDir, entryFile, built), nil
	}

	var installed []string

	for _, rel := range built {
		if !isExtensionModule(rel) {
			continue
		}

		srcPath := filepath.Join(entryDir, rel)
		if info, err := os.Stat(srcPath); err != nil || !info.Mode().IsRegular() {
			continue
		}

		relDest := filepath.Base(rel)

		if err := copyFile(srcPath, filepath.Join(primaryDest, relDest)); err != nil {
			return nil, err
		}

		for _, dest := range extraDests {
			if err := copyFile(srcPath, filepath.Join(dest, relDest)); err != nil {
				return nil, err
			}
		}

		if relPath, err := filepath.Rel(config.ProjectDir, filepath.Join(primaryDest, relDest)); err == nil {
			installed = append(installed, filepath.ToSlash(relPath))
		} else {
			installed = append(installed, filepath.ToSlash(filepath.Join(primaryDest, relDest)))
		}
	}

	return installed, nil
}

func makeProjectRelative(projectDir, entryFile string, built []string) []string {
	var relPaths []string
	baseDir := filepath.Dir(entryFile)

	for _, rel := range built {
		full := filepath.Join(baseDir, rel)
		if projectDir != "" {
			if cleaned, err := filepath.Rel(projectDir, filepath.Join(projectDir, full)); err == nil {
				relPaths = append(relPaths, filepath.ToSlash(cleaned))
				continue
			}
		}
		relPaths = append(relPaths, filepath.ToSlash(full))
	}

	return relPaths
}

func isExtensionModule(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := extensionModuleSuffixes[ext]
	return ok
}

// installTargets resolves the destination directories for built modules.
// DestPath wins; PackageDir receives an additional copy so in-tree test
// suites can import the module without installing the package.
func installTargets(config *BuildConfig) (primary string, additional []string) {
	var dirs []string

	add := func(dir string) {
		if dir == "" {
			return
		}
		if !filepath.IsAbs(dir) && config.ProjectDir != "" {
			dir = filepath.Join(config.ProjectDir, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}

	add(config.DestPath)
	add(config.PackageDir)

	dirs = uniqueStrings(dirs)
	if len(dirs) == 0 {
		return "", nil
	}

	return dirs[0], dirs[1:]
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
