package usecase

import (
	"math"
	"testing"

	"github.com/bundleup/backend/internal/domain"
)

func TestExtract_DisplayAttributes(t *testing.T) {
	extractor := NewSpecExtractor(false)

	tests := []struct {
		name string
		text string
		attr string
		want domain.SpecValue
	}{
		{
			name: "4K resolution",
			text: "Samsung 55 inch 4K Smart TV",
			attr: "resolution",
			want: domain.SpecValue{Kind: domain.SpecText, Text: "4K"},
		},
		{
			name: "UHD maps to 4K",
			text: "LG UHD Television",
			attr: "resolution",
			want: domain.SpecValue{Kind: domain.SpecText, Text: "4K"},
		},
		{
			name: "8K outranks 4K in pattern order",
			text: "Samsung 8K QLED TV",
			attr: "resolution",
			want: domain.SpecValue{Kind: domain.SpecText, Text: "8K"},
		},
		{
			name: "1080p from Full HD",
			text: "Full HD projector",
			attr: "resolution",
			want: domain.SpecValue{Kind: domain.SpecText, Text: "1080p"},
		},
		{
			name: "pixel dimensions",
			text: "Monitor 3840 x 2160",
			attr: "resolution",
			want: domain.SpecValue{Kind: domain.SpecText, Text: "4K"},
		},
		{
			name: "refresh rate",
			text: "Gaming monitor 144Hz",
			attr: "refreshRate",
			want: domain.SpecValue{Kind: domain.SpecNumber, Number: 144},
		},
		{
			name: "screen size in inches",
			text: `65 inch OLED TV`,
			attr: "screenSize",
			want: domain.SpecValue{Kind: domain.SpecNumber, Number: 65},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := extractor.Extract(tt.text)
			got, ok := specs[tt.attr]
			if !ok {
				t.Fatalf("attribute %q not extracted from %q", tt.attr, tt.text)
			}
			if got != tt.want {
				t.Errorf("%s = %+v, want %+v", tt.attr, got, tt.want)
			}
		})
	}
}

func TestExtract_Connectivity(t *testing.T) {
	extractor := NewSpecExtractor(false)

	t.Run("HDMI version", func(t *testing.T) {
		specs := extractor.Extract("TV with HDMI 2.1 ports")
		if got := specs["hdmi"]; got.Text != "2.1" {
			t.Errorf("hdmi = %+v, want 2.1", got)
		}
	})

	t.Run("bare HDMI major version", func(t *testing.T) {
		specs := extractor.Extract("Receiver with HDMI 2 output")
		if got := specs["hdmi"]; got.Text != "2" {
			t.Errorf("hdmi = %+v, want 2", got)
		}
	})

	t.Run("WiFi 6E", func(t *testing.T) {
		specs := extractor.Extract("Router with Wi-Fi 6E support")
		if got := specs["wifi"]; got.Text != "WiFi 6E" {
			t.Errorf("wifi = %+v, want WiFi 6E", got)
		}
	})

	t.Run("Bluetooth version", func(t *testing.T) {
		specs := extractor.Extract("Speaker with Bluetooth 5.3")
		if got := specs["bluetooth"]; got.Text != "5.3" {
			t.Errorf("bluetooth = %+v, want 5.3", got)
		}
	})

	t.Run("USB-C", func(t *testing.T) {
		specs := extractor.Extract("Dock with USB-C power delivery")
		if got := specs["usb"]; got.Text != "USB-C" {
			t.Errorf("usb = %+v, want USB-C", got)
		}
	})
}

func TestExtract_AudioAndPower(t *testing.T) {
	extractor := NewSpecExtractor(false)

	t.Run("channel count requires audio context", func(t *testing.T) {
		specs := extractor.Extract("Soundbar 5.1 channel surround")
		if got := specs["channels"]; got.Text != "5.1" {
			t.Errorf("channels = %+v, want 5.1", got)
		}
	})

	t.Run("HDMI version is not mistaken for channels", func(t *testing.T) {
		specs := extractor.Extract("4K TV with HDMI 2.1")
		if got, ok := specs["channels"]; ok {
			t.Errorf("channels = %+v, want absent for HDMI version text", got)
		}
	})

	t.Run("stereo maps to 2.0", func(t *testing.T) {
		specs := extractor.Extract("Compact stereo amplifier")
		if got := specs["channels"]; got.Text != "2.0" {
			t.Errorf("channels = %+v, want 2.0", got)
		}
	})

	t.Run("Atmos channel layout", func(t *testing.T) {
		specs := extractor.Extract("Receiver 7.1.2 ch Dolby Atmos")
		if got := specs["channels"]; got.Text != "7.1.2" {
			t.Errorf("channels = %+v, want 7.1.2", got)
		}
	})

	t.Run("impedance", func(t *testing.T) {
		specs := extractor.Extract("Bookshelf speakers 8 ohms")
		got := specs["impedance"]
		if got.Number != 8 || got.Unit != "Ω" {
			t.Errorf("impedance = %+v, want 8 Ω", got)
		}
	})

	t.Run("wattage", func(t *testing.T) {
		specs := extractor.Extract("Subwoofer 700W peak")
		got := specs["power"]
		if got.Number != 700 || got.Unit != "W" {
			t.Errorf("power = %+v, want 700 W", got)
		}
	})

	t.Run("watt-hours are not wattage", func(t *testing.T) {
		specs := extractor.Extract("Portable battery 100Wh capacity")
		if got, ok := specs["power"]; ok {
			t.Errorf("power = %+v, want absent for Wh rating", got)
		}
	})
}

func TestExtract_StorageAndPhysical(t *testing.T) {
	extractor := NewSpecExtractor(false)

	t.Run("TB scales to GB", func(t *testing.T) {
		specs := extractor.Extract("External SSD 2 TB")
		got := specs["storage"]
		if got.Number != 2000 || got.Unit != "GB" {
			t.Errorf("storage = %+v, want 2000 GB", got)
		}
	})

	t.Run("GB stays as is", func(t *testing.T) {
		specs := extractor.Extract("Flash drive 512 GB")
		got := specs["storage"]
		if got.Number != 512 || got.Unit != "GB" {
			t.Errorf("storage = %+v, want 512 GB", got)
		}
	})

	t.Run("dimensions", func(t *testing.T) {
		specs := extractor.Extract("Soundbar 48.0 x 4.5 x 3.9 inches")
		got := specs["dimensions"]
		if got.Width != 48.0 || got.Height != 4.5 || got.Depth != 3.9 {
			t.Errorf("dimensions = %+v, want 48.0 x 4.5 x 3.9", got)
		}
	})

	t.Run("kg converts to lbs", func(t *testing.T) {
		specs := extractor.Extract("TV weight 20 kg")
		got := specs["weight"]
		if math.Abs(got.Number-44.1) > 1e-9 || got.Unit != "lbs" {
			t.Errorf("weight = %+v, want 44.1 lbs", got)
		}
	})
}

func TestExtract_FirstMatchWins(t *testing.T) {
	extractor := NewSpecExtractor(false)

	// Both an 8K and a 4K token appear; the first pattern in order wins.
	specs := extractor.Extract("8K TV with 4K upscaling")
	if got := specs["resolution"]; got.Text != "8K" {
		t.Errorf("resolution = %+v, want 8K (first match wins)", got)
	}
}

func TestNormalize(t *testing.T) {
	extractor := NewSpecExtractor(false)

	t.Run("populates specs and confidence", func(t *testing.T) {
		p := extractor.Normalize(domain.Product{
			Title:       "55 inch 4K TV HDMI 2.1",
			Description: "120Hz refresh rate, WiFi 6",
		})

		if len(p.NormalizedSpecs) == 0 {
			t.Fatal("NormalizedSpecs is empty")
		}
		if p.ExtractionConfidence <= 0 || p.ExtractionConfidence > 1 {
			t.Errorf("ExtractionConfidence = %v, want in (0,1]", p.ExtractionConfidence)
		}
	})

	t.Run("leaves pre-populated specs alone", func(t *testing.T) {
		original := domain.Product{
			Title: "4K TV",
			NormalizedSpecs: domain.NormalizedSpecs{
				"resolution": {Kind: domain.SpecText, Text: "8K"},
			},
		}

		p := extractor.Normalize(original)
		if p.NormalizedSpecs["resolution"].Text != "8K" {
			t.Errorf("resolution = %+v, want pre-populated 8K kept", p.NormalizedSpecs["resolution"])
		}
	})

	t.Run("no matches yields zero confidence", func(t *testing.T) {
		p := extractor.Normalize(domain.Product{Title: "Gift card"})
		if len(p.NormalizedSpecs) != 0 {
			t.Errorf("NormalizedSpecs = %+v, want empty", p.NormalizedSpecs)
		}
		if p.ExtractionConfidence != 0 {
			t.Errorf("ExtractionConfidence = %v, want 0", p.ExtractionConfidence)
		}
	})
}

func TestExtractionConfidence_CriticalBonus(t *testing.T) {
	extractor := NewSpecExtractor(false)

	// Same attribute count, but one covers critical attributes.
	critical := extractor.Normalize(domain.Product{Title: "4K TV HDMI 2.1"})
	incidental := extractor.Normalize(domain.Product{Title: "512 GB drive, 1.2 lbs"})

	if len(critical.NormalizedSpecs) != len(incidental.NormalizedSpecs) {
		t.Fatalf("fixture drift: %d vs %d attributes extracted",
			len(critical.NormalizedSpecs), len(incidental.NormalizedSpecs))
	}
	if critical.ExtractionConfidence <= incidental.ExtractionConfidence {
		t.Errorf("critical coverage confidence %v, want above %v",
			critical.ExtractionConfidence, incidental.ExtractionConfidence)
	}
}

func TestCompareSpec(t *testing.T) {
	withSpec := func(attr string, v domain.SpecValue) domain.Product {
		return domain.Product{NormalizedSpecs: domain.NormalizedSpecs{attr: v}}
	}

	t.Run("newer version is backward compatible", func(t *testing.T) {
		a := withSpec("hdmi", domain.SpecValue{Kind: domain.SpecText, Text: "2.1"})
		b := withSpec("hdmi", domain.SpecValue{Kind: domain.SpecText, Text: "2.0"})

		if got := CompareSpec(a, b, "hdmi"); got != SpecCompatible {
			t.Errorf("CompareSpec = %v, want %v", got, SpecCompatible)
		}
		if got := CompareSpec(b, a, "hdmi"); got != SpecIncompatible {
			t.Errorf("CompareSpec reversed = %v, want %v", got, SpecIncompatible)
		}
	})

	t.Run("equal numbers are compatible", func(t *testing.T) {
		a := withSpec("refreshRate", domain.SpecValue{Kind: domain.SpecNumber, Number: 120})
		b := withSpec("refreshRate", domain.SpecValue{Kind: domain.SpecNumber, Number: 120})

		if got := CompareSpec(a, b, "refreshRate"); got != SpecCompatible {
			t.Errorf("CompareSpec = %v, want %v", got, SpecCompatible)
		}
	})

	t.Run("unequal numbers warn", func(t *testing.T) {
		a := withSpec("impedance", domain.SpecValue{Kind: domain.SpecMeasure, Number: 8, Unit: "Ω"})
		b := withSpec("impedance", domain.SpecValue{Kind: domain.SpecMeasure, Number: 6, Unit: "Ω"})

		if got := CompareSpec(a, b, "impedance"); got != SpecWarning {
			t.Errorf("CompareSpec = %v, want %v", got, SpecWarning)
		}
	})

	t.Run("overlapping ranges are compatible", func(t *testing.T) {
		a := withSpec("frequency", domain.SpecValue{Kind: domain.SpecRange, Min: 20, Max: 20000})
		b := withSpec("frequency", domain.SpecValue{Kind: domain.SpecRange, Min: 40, Max: 22000})

		if got := CompareSpec(a, b, "frequency"); got != SpecCompatible {
			t.Errorf("CompareSpec = %v, want %v", got, SpecCompatible)
		}
	})

	t.Run("disjoint ranges are incompatible", func(t *testing.T) {
		a := withSpec("frequency", domain.SpecValue{Kind: domain.SpecRange, Min: 20, Max: 100})
		b := withSpec("frequency", domain.SpecValue{Kind: domain.SpecRange, Min: 200, Max: 500})

		if got := CompareSpec(a, b, "frequency"); got != SpecIncompatible {
			t.Errorf("CompareSpec = %v, want %v", got, SpecIncompatible)
		}
	})

	t.Run("missing data on either side is unknown", func(t *testing.T) {
		a := withSpec("hdmi", domain.SpecValue{Kind: domain.SpecText, Text: "2.1"})
		b := domain.Product{}

		if got := CompareSpec(a, b, "hdmi"); got != SpecUnknown {
			t.Errorf("CompareSpec = %v, want %v", got, SpecUnknown)
		}
	})
}

func TestParseVersionNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2.1", 21, true},
		{"2.0", 20, true},
		{"5.3", 53, true},
		{"2", 20, true},
		{"WiFi 6E", 60, true},
		{"none", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseVersionNumber(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseVersionNumber(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"7.1.2", 7.1, true},
		{"5.1", 5.1, true},
		{"2", 2, true},
		{"stereo", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLeadingFloat(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseLeadingFloat(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
