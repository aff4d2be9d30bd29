package territory

import "testing"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name   string
		number string
		street string
		want   string
	}{
		{"plain", "10", "Rue de la République", "10 rue de la republique"},
		{"accents folded", "3", "Place de l'Église", "3 place de l'eglise"},
		{"whitespace collapsed", " 10 ", "  Rue   de  la   République ", "10 rue de la republique"},
		{"uppercase roll export", "12", "RUE DU DOYENNÉ", "12 rue du doyenne"},
		{"number suffix", "10 bis", "Rue des Macchabées", "10 bis rue des macchabees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAddress(tt.number, tt.street)
			if got != tt.want {
				t.Errorf("NormalizeAddress(%q, %q) = %q, want %q", tt.number, tt.street, got, tt.want)
			}
		})
	}
}

func TestNormalizeAddressDedupesVariants(t *testing.T) {
	a := NormalizeAddress("10", "Rue de la République")
	b := NormalizeAddress("10", "RUE DE LA REPUBLIQUE")
	if a != b {
		t.Errorf("variants should share a dedup key: %q vs %q", a, b)
	}
}

func TestTitleStreet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RUE DE LA RÉPUBLIQUE", "Rue de la République"},
		{"PLACE DU MARCHÉ", "Place du Marché"},
		{"RUE DES FRÈRES LUMIÈRE", "Rue des Frères Lumière"},
	}
	for _, tt := range tests {
		if got := TitleStreet(tt.in); got != tt.want {
			t.Errorf("TitleStreet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInferDistrictCode(t *testing.T) {
	tests := []struct {
		desk string
		want string
	}{
		{"502", "5"},
		{"1201", "12"},
		{"5", "5"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := InferDistrictCode(tt.desk); got != tt.want {
			t.Errorf("InferDistrictCode(%q) = %q, want %q", tt.desk, got, tt.want)
		}
	}
}

func TestBuildingGeocoded(t *testing.T) {
	lat, lon := 45.76, 4.83
	b := Building{}
	if b.Geocoded() {
		t.Error("building without coordinates should not be geocoded")
	}
	b.Latitude = &lat
	if b.Geocoded() {
		t.Error("latitude alone is not enough")
	}
	b.Longitude = &lon
	if !b.Geocoded() {
		t.Error("building with both coordinates should be geocoded")
	}
}
