package media

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
)

// Extensions lists the file types the library picks up: the ones
// BeepElement can decode.
var Extensions = []string{".mp3", ".flac", ".ogg", ".wav"}

// IsAudioFile reports whether path has one of Extensions.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TrackID derives a stable short ID from the file's absolute path.
func TrackID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()[:8]
}

// ReadTrack builds a track from the file's tags. Untagged or unreadable
// tags fall back to the file name.
func ReadTrack(path string) (model.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.Track{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return model.Track{}, err
	}
	defer f.Close()

	track := model.Track{
		ID:       TrackID(abs),
		AudioURL: abs,
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		logger.Debug("no readable tags", logger.String("path", abs), logger.ErrorField(err))
	} else {
		track.Title = m.Title()
		track.Artist = m.Artist()
		if albumArtist := m.AlbumArtist(); albumArtist != "" && track.Artist == "" {
			track.Artist = albumArtist
		}
		track.Album = m.Album()
	}

	if track.Title == "" {
		track.Title = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if track.Artist == "" {
		track.Artist = "unknown artist"
	}
	return track, nil
}

// Scan walks dir and returns a track for every audio file, ordered by path.
func Scan(dir string) ([]model.Track, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	tracks := make([]model.Track, 0, len(paths))
	for _, p := range paths {
		t, err := ReadTrack(p)
		if err != nil {
			logger.Warn("skipping unreadable file", logger.String("path", p), logger.ErrorField(err))
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}
