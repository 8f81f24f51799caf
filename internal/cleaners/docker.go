package cleaners

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
	"github.com/devsweep/devsweep/internal/fsutil"
)

// Docker removes unused images and volumes through the docker CLI.
type Docker struct {
	run execx.Runner
}

func NewDocker(o Options) *Docker {
	return &Docker{run: o.Runner}
}

func (d *Docker) Name() string { return "docker" }

func (d *Docker) Description() string {
	return "Removes unused Docker images and volumes"
}

func (d *Docker) CheckPrerequisites(ctx context.Context) error {
	if _, err := d.run.Run(ctx, 5*time.Second, "docker", "--version"); err != nil {
		return fmt.Errorf("docker not available: %w", err)
	}
	if _, err := d.run.Run(ctx, 10*time.Second, "docker", "info", "--format", "{{.ServerVersion}}"); err != nil {
		return fmt.Errorf("docker daemon not responding: %w", err)
	}
	return nil
}

func (d *Docker) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	var items []cleaner.Item
	items = append(items, d.findUnusedImages(ctx, thresholdDays)...)
	items = append(items, d.findUnusedVolumes(ctx, thresholdDays)...)
	return items, nil
}

func (d *Docker) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	switch item.Kind {
	case "image":
		if d.runningImageIDs(ctx)[item.Identity] {
			return fmt.Errorf("image %s has a running container: %w", item.Identity, cleaner.ErrInUse)
		}
		if dryRun {
			return nil
		}
		_, err := d.run.Run(ctx, 45*time.Second, "docker", "rmi", item.Identity)
		return err
	case "volume":
		if d.mountedVolumes(ctx)[item.Identity] {
			return fmt.Errorf("volume %s is mounted: %w", item.Identity, cleaner.ErrInUse)
		}
		if dryRun {
			return nil
		}
		_, err := d.run.Run(ctx, 30*time.Second, "docker", "volume", "rm", item.Identity)
		return err
	default:
		return fmt.Errorf("unknown docker resource kind %q", item.Kind)
	}
}

func (d *Docker) Describe(item cleaner.Item) string {
	switch item.Kind {
	case "image":
		return fmt.Sprintf("Image: %s:%s (%s, %s, unused for %d days)",
			item.Meta("repository"), item.Meta("tag"), item.Identity[:min(12, len(item.Identity))],
			humanize.IBytes(uint64(item.SizeBytes)), item.AgeDays)
	case "volume":
		return fmt.Sprintf("Volume: %s (unused for %d days)", item.Identity, item.AgeDays)
	default:
		return item.Identity
	}
}

func (d *Docker) findUnusedImages(ctx context.Context, thresholdDays int) []cleaner.Item {
	out, err := d.run.Run(ctx, 30*time.Second, "docker", "images", "--format",
		"{{.ID}}|{{.Repository}}|{{.Tag}}|{{.CreatedAt}}|{{.Size}}")
	if err != nil {
		log.Warn("listing docker images failed", "err", err)
		return nil
	}

	running := d.runningImageIDs(ctx)
	lastUsed := d.imageLastUsed(ctx)
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)

	var items []cleaner.Item
	for _, img := range parseImageTable(out) {
		if img.Repository == "<none>" || img.Tag == "<none>" {
			continue
		}
		if running[img.ID] {
			continue
		}
		used := img.Created
		if t, ok := lastUsed[img.Repository+":"+img.Tag]; ok && t.After(used) {
			used = t
		}
		if used.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:      "image",
			Identity:  img.ID,
			SizeBytes: img.SizeBytes,
			AgeDays:   int(time.Since(used).Hours() / 24),
			Metadata: map[string]string{
				"repository": img.Repository,
				"tag":        img.Tag,
			},
		})
	}
	return items
}

func (d *Docker) findUnusedVolumes(ctx context.Context, thresholdDays int) []cleaner.Item {
	out, err := d.run.Run(ctx, 30*time.Second, "docker", "volume", "ls", "-q")
	if err != nil {
		log.Warn("listing docker volumes failed", "err", err)
		return nil
	}

	mounted := d.mountedVolumes(ctx)
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)

	var items []cleaner.Item
	for _, name := range splitLines(out) {
		if mounted[name] {
			continue
		}
		created, ok := d.volumeCreated(ctx, name)
		if !ok {
			// No way to tell how old it is; leave it alone.
			continue
		}
		if created.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:     "volume",
			Identity: name,
			AgeDays:  int(time.Since(created).Hours() / 24),
		})
	}
	return items
}

// runningImageIDs resolves the image ID of every running container.
func (d *Docker) runningImageIDs(ctx context.Context) map[string]bool {
	ids := make(map[string]bool)
	out, err := d.run.Run(ctx, 15*time.Second, "docker", "ps", "-q")
	if err != nil {
		return ids
	}
	for _, ctr := range splitLines(out) {
		img, err := d.run.Run(ctx, 10*time.Second, "docker", "inspect", "--format", "{{.Image}}", ctr)
		if err != nil {
			continue
		}
		// Full sha256 reference; also index the short form images -q prints.
		img = strings.TrimPrefix(strings.TrimSpace(img), "sha256:")
		ids[img] = true
		if len(img) >= 12 {
			ids[img[:12]] = true
		}
	}
	return ids
}

// imageLastUsed maps repo:tag to the newest container created from it,
// including stopped containers.
func (d *Docker) imageLastUsed(ctx context.Context) map[string]time.Time {
	out, err := d.run.Run(ctx, 30*time.Second, "docker", "ps", "-a", "--format", "{{.Image}}|{{.CreatedAt}}")
	if err != nil {
		return nil
	}
	return parseImageUsage(out)
}

func (d *Docker) mountedVolumes(ctx context.Context) map[string]bool {
	mounted := make(map[string]bool)
	out, err := d.run.Run(ctx, 15*time.Second, "docker", "ps", "-q")
	if err != nil {
		return mounted
	}
	for _, ctr := range splitLines(out) {
		raw, err := d.run.Run(ctx, 10*time.Second, "docker", "inspect", "--format", "{{json .Mounts}}", ctr)
		if err != nil {
			continue
		}
		for _, name := range mountedVolumeNames(raw) {
			mounted[name] = true
		}
	}
	return mounted
}

// volumeCreated determines when a volume was created: a created_at label if
// present, otherwise the mountpoint's last-used time.
func (d *Docker) volumeCreated(ctx context.Context, name string) (time.Time, bool) {
	raw, err := d.run.Run(ctx, 15*time.Second, "docker", "volume", "inspect", name)
	if err != nil {
		return time.Time{}, false
	}
	var infos []struct {
		Mountpoint string            `json:"Mountpoint"`
		Labels     map[string]string `json:"Labels"`
	}
	if err := json.Unmarshal([]byte(raw), &infos); err != nil || len(infos) == 0 {
		return time.Time{}, false
	}
	info := infos[0]
	if label, ok := info.Labels["created_at"]; ok {
		if t, err := time.Parse(time.RFC3339, label); err == nil {
			return t, true
		}
	}
	if info.Mountpoint != "" {
		if t, err := fsutil.LastUsed(info.Mountpoint); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type imageRow struct {
	ID         string
	Repository string
	Tag        string
	Created    time.Time
	SizeBytes  int64
}

func parseImageTable(out string) []imageRow {
	var rows []imageRow
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "|", 5)
		if len(parts) != 5 {
			continue
		}
		created, err := parseDockerTime(parts[3])
		if err != nil {
			log.Debug("unparseable image timestamp", "image", parts[0], "value", parts[3])
			continue
		}
		size, _ := humanize.ParseBytes(parts[4])
		rows = append(rows, imageRow{
			ID:         parts[0],
			Repository: parts[1],
			Tag:        parts[2],
			Created:    created,
			SizeBytes:  int64(size),
		})
	}
	return rows
}

func parseImageUsage(out string) map[string]time.Time {
	usage := make(map[string]time.Time)
	for _, line := range splitLines(out) {
		image, createdAt, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		created, err := parseDockerTime(createdAt)
		if err != nil {
			continue
		}
		if prev, ok := usage[image]; !ok || created.After(prev) {
			usage[image] = created
		}
	}
	return usage
}

// mountedVolumeNames extracts named volume mounts from {{json .Mounts}}.
func mountedVolumeNames(raw string) []string {
	var mounts []struct {
		Type string `json:"Type"`
		Name string `json:"Name"`
	}
	if err := json.Unmarshal([]byte(raw), &mounts); err != nil {
		return nil
	}
	var names []string
	for _, m := range mounts {
		if m.Type == "volume" && m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names
}

var dockerTimeLayouts = []string{
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 -0700",
}

func parseDockerTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dockerTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
