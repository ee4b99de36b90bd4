package exifdate_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photocrawl/internal/crawl"
	"photocrawl/internal/exifdate"
	"photocrawl/internal/testutil"
)

func write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2021:06:01 12:30:45", time.Date(2021, 6, 1, 12, 30, 45, 0, time.UTC), false},
		{"2021:06:01 12:30:45\x00", time.Date(2021, 6, 1, 12, 30, 45, 0, time.UTC), false},
		{" 2021:06:01 12:30:45 ", time.Date(2021, 6, 1, 12, 30, 45, 0, time.UTC), false},
		{"0000:00:00 00:00:00", time.Time{}, true},
		{"2021-06-01 12:30:45", time.Time{}, true},
		{"2021:06:01", time.Time{}, true},
		{"", time.Time{}, true},
		{"2021:13:01 12:30:45", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := exifdate.ParseDate(tt.in, time.UTC)
			if tt.wantErr {
				if !errors.Is(err, exifdate.ErrBadDate) {
					t.Errorf("ParseDate(%q) error = %v, want ErrBadDate", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := exifdate.ParseDate("2021:06:01 01:00:00", loc)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	want := time.Date(2021, 5, 31, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got.UTC(), want)
	}
}

func TestResolver_JPEG(t *testing.T) {
	r := exifdate.NewResolver(time.UTC, nil)
	fallback := time.Unix(1700000000, 0)

	t.Run("earliest of all date fields wins", func(t *testing.T) {
		tiff := testutil.BuildTIFF(false, testutil.TIFFDates{
			DateTime:  "2021:06:03 10:00:00",
			Original:  "2021:06:01 09:00:00",
			Digitized: "2021:06:02 08:00:00",
		})
		path := write(t, "photo.jpg", testutil.BuildJPEG(tiff))

		got := r.Resolve(path, fallback)
		want := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})

	t.Run("malformed field is skipped", func(t *testing.T) {
		tiff := testutil.BuildTIFF(true, testutil.TIFFDates{
			DateTime: "2019:02:03 04:05:06",
			Original: "0000:00:00 00:00:00",
		})
		path := write(t, "photo.JPG", testutil.BuildJPEG(tiff))

		got := r.Resolve(path, fallback)
		want := time.Date(2019, 2, 3, 4, 5, 6, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})

	t.Run("no exif falls back", func(t *testing.T) {
		path := write(t, "plain.jpg", []byte{0xFF, 0xD8, 0xFF, 0xD9})

		if got := r.Resolve(path, fallback); !got.Equal(fallback) {
			t.Errorf("Resolve() = %v, want fallback %v", got, fallback)
		}
		if _, err := r.Date(path); !errors.Is(err, crawl.ErrMetadata) {
			t.Errorf("Date() error = %v, want ErrMetadata", err)
		}
	})
}

func TestResolver_TIFF(t *testing.T) {
	r := exifdate.NewResolver(time.UTC, nil)
	fallback := time.Unix(1700000000, 0)

	for _, little := range []bool{true, false} {
		name := "big-endian"
		if little {
			name = "little-endian"
		}
		t.Run(name, func(t *testing.T) {
			data := testutil.BuildTIFF(little, testutil.TIFFDates{
				DateTime:  "2018:01:01 00:00:00",
				Original:  "2017:12:24 18:30:00",
				Digitized: "2017:12:25 18:30:00",
			})
			path := write(t, "raw.CR2", data)

			got := r.Resolve(path, fallback)
			want := time.Date(2017, 12, 24, 18, 30, 0, 0, time.UTC)
			if !got.Equal(want) {
				t.Errorf("Resolve() = %v, want %v", got, want)
			}
		})
	}

	t.Run("IFD0 date alone is used", func(t *testing.T) {
		data := testutil.BuildTIFF(true, testutil.TIFFDates{DateTime: "2016:05:05 05:05:05"})
		got := r.Resolve(write(t, "scan.tif", data), fallback)
		want := time.Date(2016, 5, 5, 5, 5, 5, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("Resolve() = %v, want %v", got, want)
		}
	})

	t.Run("truncated file falls back", func(t *testing.T) {
		data := testutil.BuildTIFF(true, testutil.TIFFDates{Original: "2017:12:24 18:30:00"})
		data = data[:len(data)-15] // cut into the date string
		got := r.Resolve(write(t, "cut.nef", data), fallback)
		if !got.Equal(fallback) {
			t.Errorf("Resolve() = %v, want fallback", got)
		}
	})

	t.Run("bad magic falls back", func(t *testing.T) {
		got := r.Resolve(write(t, "junk.tiff", []byte("II\x2b\x00\x08\x00\x00\x00")), fallback)
		if !got.Equal(fallback) {
			t.Errorf("Resolve() = %v, want fallback", got)
		}
	})
}

func TestResolver_QuickTime(t *testing.T) {
	r := exifdate.NewResolver(time.UTC, nil)
	created := time.Date(2020, 8, 15, 14, 0, 0, 0, time.UTC)

	got := r.Resolve(write(t, "clip.mov", testutil.BuildMP4(created)), time.Unix(0, 0))
	if !got.Equal(created) {
		t.Errorf("Resolve() = %v, want %v", got, created)
	}

	zero := testutil.BuildMP4(time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC))
	fallback := time.Unix(1700000000, 0)
	if got := r.Resolve(write(t, "unset.mp4", zero), fallback); !got.Equal(fallback) {
		t.Errorf("Resolve() with unset creation = %v, want fallback", got)
	}

	t.Run("64-bit creation", func(t *testing.T) {
		tests := []struct {
			name string
			secs uint64
			want time.Time
		}{
			{"in range", uint64(created.Unix() + 2082844800), created},
			{"after 2100", 1 << 40, fallback},
			{"max", ^uint64(0), fallback},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := r.Resolve(write(t, "clip.mp4", testutil.BuildMP4V1(tt.secs)), fallback)
				if !got.Equal(tt.want) {
					t.Errorf("Resolve() = %v, want %v", got, tt.want)
				}
			})
		}
	})
}

func TestResolver_UnknownTypeFallsBack(t *testing.T) {
	r := exifdate.NewResolver(nil, nil)
	fallback := time.Unix(1700000000, 0)
	withExif := testutil.BuildJPEG(testutil.BuildTIFF(false, testutil.TIFFDates{Original: "2021:06:01 09:00:00"}))

	tests := []struct {
		name string
		data []byte
	}{
		{"image.gif", []byte("GIF89a")},
		{"IMG_0001.HEIC", withExif},
		{"IMG_0002.heif", withExif},
		{"screen.png", withExif},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(write(t, tt.name, tt.data), fallback)
			if !got.Equal(fallback) {
				t.Errorf("Resolve() = %v, want %v", got, fallback)
			}
			if got.UTC().Format("2006/01/02") != "2023/11/14" {
				t.Errorf("fallback day = %s, want 2023/11/14", got.UTC().Format("2006/01/02"))
			}
		})
	}
}
