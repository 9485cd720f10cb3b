package slidescene

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// FontCache loads TrueType/OpenType fonts once and hands out faces.
// Lookups that find nothing fall back to embedded Go fonts, so a face is
// always available. The cache is safe for concurrent use; the faces it
// returns are not.
type FontCache struct {
	mu       sync.RWMutex
	dirs     []string                  // directories to search for fonts
	fonts    map[string]*opentype.Font // folded family name -> parsed font
	fallback [4]*opentype.Font         // regular, bold, italic, bold italic
	scanned  bool
}

// NewFontCache creates a FontCache that searches the given directories.
// When systemFonts is true the OS font directories are searched as well.
func NewFontCache(systemFonts bool, extraDirs ...string) *FontCache {
	var dirs []string
	if systemFonts {
		dirs = systemFontDirs()
	}
	dirs = append(dirs, extraDirs...)
	fc := &FontCache{
		dirs:  dirs,
		fonts: make(map[string]*opentype.Font),
	}
	for i, data := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF} {
		if f, err := opentype.Parse(data); err == nil {
			fc.fallback[i] = f
		}
	}
	return fc
}

// foldName normalises a family name for lookup.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Face returns a new face for the family at sizePx pixels. Faces are
// built at 72 DPI so the point size equals the pixel size, unhinted so
// measured advances match drawn ones. Each call returns a fresh face that
// must not be shared between goroutines.
func (fc *FontCache) Face(name string, sizePx float64, bold, italic bool) font.Face {
	fc.ensureScanned()
	if sizePx <= 0 {
		sizePx = 1
	}
	f := fc.findFont(foldName(name), bold, italic)
	if f == nil {
		f = fc.fallbackFont(bold, italic)
	}
	if f == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Has reports whether a family resolves to a loaded font other than the
// embedded fallback.
func (fc *FontCache) Has(name string) bool {
	fc.ensureScanned()
	return fc.findFont(foldName(name), false, false) != nil
}

func (fc *FontCache) fallbackFont(bold, italic bool) *opentype.Font {
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return fc.fallback[i]
}

// findFont looks up a parsed font by folded name, trying style-specific
// variants first and then metric-compatible substitutes.
func (fc *FontCache) findFont(lower string, bold, italic bool) *opentype.Font {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	if f := fc.findStyled(lower, bold, italic); f != nil {
		return f
	}
	if alias, ok := metricAliases[lower]; ok {
		return fc.findStyled(alias, bold, italic)
	}
	return nil
}

// findStyled tries naming conventions for style variants: family names
// ("arial bold italic") and Windows file names ("arialbi", "arialbd").
func (fc *FontCache) findStyled(lower string, bold, italic bool) *opentype.Font {
	var suffixes []string
	switch {
	case bold && italic:
		suffixes = []string{" bold italic", "bi", " bolditalic", "z", "-bolditalic"}
	case bold:
		suffixes = []string{" bold", "bd", "b", "-bold"}
	case italic:
		suffixes = []string{" italic", "i", " it", "-italic"}
	}
	for _, suffix := range suffixes {
		if f, ok := fc.fonts[lower+suffix]; ok {
			return f
		}
	}
	if f, ok := fc.fonts[lower]; ok {
		return f
	}
	return nil
}

// LoadFont loads a TrueType/OpenType font file and registers it under the
// given name. Returns an error if the file exceeds maxFontFileSize.
func (fc *FontCache) LoadFont(name string, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxFontFileSize {
		return fmt.Errorf("font file too large: %d bytes (max %d)", info.Size(), maxFontFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return fc.LoadFontData(name, data)
}

// LoadFontData registers a TrueType/OpenType font from raw bytes.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	fc.mu.Lock()
	fc.fonts[foldName(name)] = f
	fc.registerByFamilyName(f)
	fc.mu.Unlock()
	return nil
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true

	for _, dir := range fc.dirs {
		fc.scanDir(dir, 0)
	}
}

// maxFontScanDepth limits recursive directory traversal when scanning for fonts.
const maxFontScanDepth = 3

// maxFontFileSize limits the size of individual font files loaded into memory.
const maxFontFileSize = 20 << 20 // 20 MB

func (fc *FontCache) scanDir(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDir(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		lower := strings.ToLower(entry.Name())
		ext := filepath.Ext(lower)
		collection := ext == ".ttc" || ext == ".otc"
		if !collection && ext != ".ttf" && ext != ".otf" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		base := strings.TrimSuffix(lower, ext)
		if collection {
			fc.loadCollection(data, base)
		} else {
			fc.loadSingleFont(data, base)
		}
	}
}

// loadSingleFont registers a font by file base name and family name.
func (fc *FontCache) loadSingleFont(data []byte, base string) {
	f, err := opentype.Parse(data)
	if err != nil {
		return
	}
	fc.fonts[base] = f
	fc.registerByFamilyName(f)
}

// loadCollection registers each font of a TTC/OTC by family name; the
// first font is also registered under the file base name.
func (fc *FontCache) loadCollection(data []byte, base string) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return
	}
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		if i == 0 {
			fc.fonts[base] = f
		}
		fc.registerByFamilyName(f)
	}
}

// metricAliases maps common presentation fonts onto freely available
// families with the same advance widths.
var metricAliases = map[string]string{
	"calibri":         "carlito",
	"calibri light":   "carlito",
	"cambria":         "caladea",
	"arial":           "liberation sans",
	"helvetica":       "liberation sans",
	"arial narrow":    "liberation sans narrow",
	"times new roman": "liberation serif",
	"times":           "liberation serif",
	"courier new":     "liberation mono",
	"courier":         "liberation mono",
	"segoe ui":        "dejavu sans",
	"verdana":         "dejavu sans",
	"tahoma":          "dejavu sans",
	"georgia":         "dejavu serif",
	"consolas":        "dejavu sans mono",
}

// registerByFamilyName registers f under its family and full names.
// Callers hold fc.mu.
func (fc *FontCache) registerByFamilyName(f *opentype.Font) {
	if name, err := f.Name(nil, sfnt.NameIDFamily); err == nil && name != "" {
		fc.fonts[foldName(name)] = f
	}
	if name, err := f.Name(nil, sfnt.NameIDFull); err == nil && name != "" {
		fc.fonts[foldName(name)] = f
	}
}

// systemFontDirs returns OS-specific font directories.
func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs := []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		dirs := []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
		return dirs
	}
}
