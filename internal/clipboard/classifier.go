package clipboard

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/appinfo"
	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/pasteboard"
	"github.com/clipkeep/clipkeep/internal/render"
	"github.com/clipkeep/clipkeep/internal/types"
)

const (
	previewMaxLen = 120
	thumbMaxDim   = 256
)

var (
	urlPattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://\S+$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	htmlTags     = regexp.MustCompile(`<[^>]*>`)
	rtfControls  = regexp.MustCompile(`\\[a-z]+-?\d*\s?|[{}]|\\'[0-9a-f]{2}`)
)

// rasterExtensions are the file extensions the classifier will try to
// decode as images when a single file reference is copied.
var rasterExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// Classified is the classifier's output for one capture cycle: exactly one
// typed content variant (memory-resident at this stage; tiering happens in
// the store), its preview, and the app it came from.
type Classified struct {
	Content types.Content
	Preview string
	App     types.SourceApp
}

// Classifier turns the representation set offered by the pasteboard into
// one typed content variant, honoring a fixed precedence, absolute size
// ceilings and the configured capture gates.
type Classifier struct {
	pb      pasteboard.Pasteboard
	apps    appinfo.Provider
	cache   *render.Cache
	capture config.CaptureConfig
	limits  config.LimitsConfig
	logger  *zap.Logger
}

func NewClassifier(pb pasteboard.Pasteboard, apps appinfo.Provider, cache *render.Cache, capture config.CaptureConfig, limits config.LimitsConfig, logger *zap.Logger) *Classifier {
	return &Classifier{
		pb:      pb,
		apps:    apps,
		cache:   cache,
		capture: capture,
		limits:  limits,
		logger:  logger,
	}
}

// Classify reads the current pasteboard representations and produces one
// classified variant. types.ErrNoContent means the cycle is a no-op; the
// typed rejection errors mean the content was deliberately refused.
func (c *Classifier) Classify() (*Classified, error) {
	reps := c.pb.Representations()
	if len(reps) == 0 {
		return nil, types.ErrNoContent
	}

	app, ok := c.apps.ActiveApplication()
	if !ok {
		app = types.UnknownApp
	}

	out, err := c.classify(reps)
	if err != nil {
		return nil, err
	}
	out.App = app

	if err := c.applyGates(out, app); err != nil {
		return nil, err
	}
	return out, nil
}

// classify applies the precedence order: file references first, then raw
// image bytes, plain text, rich text, markup, and finally a raw-bytes
// fallback.
func (c *Classifier) classify(reps []pasteboard.TypeTag) (*Classified, error) {
	if hasTag(reps, pasteboard.TagURIList) {
		if out := c.classifyFileRefs(); out != nil {
			return out, nil
		}
	}

	for _, tag := range pasteboard.ImageTags {
		if !hasTag(reps, tag) {
			continue
		}
		data, err := c.pb.ReadBytes(tag)
		if err != nil {
			continue
		}
		return c.classifyImageBytes(data, "")
	}

	if hasTag(reps, pasteboard.TagText) {
		if s, err := c.pb.ReadString(pasteboard.TagText); err == nil {
			return c.classifyText(s)
		}
	}

	if hasTag(reps, pasteboard.TagRTF) {
		if data, err := c.pb.ReadBytes(pasteboard.TagRTF); err == nil {
			return &Classified{
				Content: types.Content{Kind: types.KindRichText, Data: data},
				Preview: truncatePreview(stripRTF(string(data))),
			}, nil
		}
	}

	if hasTag(reps, pasteboard.TagHTML) {
		if data, err := c.pb.ReadBytes(pasteboard.TagHTML); err == nil {
			return &Classified{
				Content: types.Content{Kind: types.KindRichText, Data: data},
				Preview: truncatePreview(htmlTags.ReplaceAllString(string(data), "")),
			}, nil
		}
	}

	// Fallback: first representation that yields bytes becomes Unknown.
	for _, tag := range reps {
		if data, err := c.pb.ReadBytes(tag); err == nil && len(data) > 0 {
			return &Classified{
				Content: types.Content{Kind: types.KindUnknown, Data: data},
			}, nil
		}
	}

	return nil, types.ErrNoContent
}

// classifyFileRefs handles the file-reference representation. A single
// reference with a raster-image extension is decoded as an image; anything
// else becomes a generic File. Only the first path is kept when multiple
// files are offered, a known single-file limitation. Returns nil when no
// usable path is present so the caller falls through the precedence order.
func (c *Classifier) classifyFileRefs() *Classified {
	s, err := c.pb.ReadString(pasteboard.TagURIList)
	if err != nil {
		return nil
	}
	paths := parseURIList(s)
	if len(paths) == 0 {
		return nil
	}

	if len(paths) == 1 && rasterExtensions[strings.ToLower(filepath.Ext(paths[0]))] {
		// Stat before reading so an over-ceiling file is never slurped or
		// decoded; it stays a plain file reference.
		if info, err := os.Stat(paths[0]); err == nil && info.Size() <= c.limits.MaxImageBytes {
			if raw, err := os.ReadFile(paths[0]); err == nil {
				if out, err := c.classifyImageBytes(raw, filepath.Base(paths[0])); err == nil {
					return out
				}
			}
		}
		c.logger.Debug("single file reference not usable as image, keeping as file",
			zap.String("path", paths[0]))
	}

	return &Classified{
		Content: types.Content{Kind: types.KindFile, Path: paths[0]},
		Preview: truncatePreview(paths[0]),
	}
}

// classifyImageBytes validates raw image bytes by decoding them and
// attaches a memory-resident thumbnail. name, when set, tags the preview
// with the original filename. The size ceiling is checked before any
// decoding so an over-ceiling payload never reaches the render cache.
func (c *Classifier) classifyImageBytes(raw []byte, name string) (*Classified, error) {
	if size := int64(len(raw)); size > c.limits.MaxImageBytes {
		return nil, &types.SizeExceededError{Kind: types.KindImage, Size: size, Limit: c.limits.MaxImageBytes}
	}

	img, err := c.cache.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("image classification failed: %w", err)
	}

	thumb, err := c.cache.Thumbnail(raw, thumbMaxDim)
	if err != nil {
		c.logger.Warn("thumbnail generation failed", zap.Error(err))
		thumb = nil
	}

	bounds := img.Bounds()
	preview := fmt.Sprintf("Image %dx%d", bounds.Dx(), bounds.Dy())
	if name != "" {
		preview = fmt.Sprintf("%s (%dx%d)", name, bounds.Dx(), bounds.Dy())
	}

	return &Classified{
		Content: types.Content{Kind: types.KindImage, Data: raw, Thumb: thumb},
		Preview: preview,
	}, nil
}

// classifyText distinguishes URLs and e-mail addresses (both stored as URL
// items) from plain text.
func (c *Classifier) classifyText(s string) (*Classified, error) {
	trimmed := strings.TrimSpace(s)
	if urlPattern.MatchString(trimmed) || emailPattern.MatchString(trimmed) {
		return &Classified{
			Content: types.Content{Kind: types.KindURL, Data: []byte(trimmed)},
			Preview: truncatePreview(trimmed),
		}, nil
	}
	return &Classified{
		Content: types.Content{Kind: types.KindText, Data: []byte(s)},
		Preview: truncatePreview(s),
	}, nil
}

// applyGates enforces the absolute size ceiling, the per-type enablement
// flag, the foreground-app exclusion list, and the sensitive-content
// heuristic for text-family content.
func (c *Classifier) applyGates(out *Classified, app types.SourceApp) error {
	kind := out.Content.Kind

	limit := c.limits.MaxOtherBytes
	if kind == types.KindImage {
		limit = c.limits.MaxImageBytes
	}
	if size := int64(len(out.Content.Data)); size > limit {
		return &types.SizeExceededError{Kind: kind, Size: size, Limit: limit}
	}

	if !c.kindEnabled(kind) {
		return &types.TypeDisabledError{Kind: kind}
	}

	if kind != types.KindUnknown {
		if name, excluded := matchesAppList(app.Name, c.capture.ExcludedApps); excluded {
			return &types.AppExcludedError{AppName: name}
		}
	}

	if kind == types.KindText || kind == types.KindURL {
		if name, sensitive := matchesAppList(app.Name, c.capture.SensitiveApps); sensitive {
			return &types.SensitiveContentError{AppName: name}
		}
	}

	return nil
}

func (c *Classifier) kindEnabled(kind types.ContentKind) bool {
	switch kind {
	case types.KindText:
		return c.capture.EnableText
	case types.KindURL:
		return c.capture.EnableURL
	case types.KindImage:
		return c.capture.EnableImage
	case types.KindFile:
		return c.capture.EnableFile
	case types.KindRichText:
		return c.capture.EnableRichText
	default:
		return c.capture.EnableUnknown
	}
}

// matchesAppList does a case-insensitive substring match of the app name
// against a configured list, returning the app name on a hit.
func matchesAppList(appName string, list []string) (string, bool) {
	if appName == "" {
		return "", false
	}
	lower := strings.ToLower(appName)
	for _, entry := range list {
		if entry == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(entry)) {
			return appName, true
		}
	}
	return "", false
}

func hasTag(reps []pasteboard.TypeTag, tag pasteboard.TypeTag) bool {
	for _, r := range reps {
		if r == tag {
			return true
		}
	}
	return false
}

// parseURIList extracts local filesystem paths from a text/uri-list
// payload. Comment lines start with '#'. Entries are percent-encoded per
// RFC 2483, so "My%20File.txt" decodes to the real on-disk name.
func parseURIList(s string) []string {
	var paths []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "file://")
		if decoded, err := url.PathUnescape(line); err == nil {
			line = decoded
		}
		paths = append(paths, line)
	}
	return paths
}

// truncatePreview collapses a payload into a bounded single-line human
// string.
func truncatePreview(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > previewMaxLen {
		return string(runes[:previewMaxLen]) + "…"
	}
	return s
}

// stripRTF produces a best-effort plain-text preview from RTF bytes.
func stripRTF(s string) string {
	if i := strings.Index(s, `\rtf`); i < 0 {
		return s
	}
	return strings.TrimSpace(rtfControls.ReplaceAllString(s, ""))
}
