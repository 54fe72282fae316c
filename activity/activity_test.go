package activity

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const sampleDocument = `{
	"id": "ferrata-delle-trincee",
	"name": "Ferrata delle Trincee",
	"category": "0",
	"description": "Percorso in quota",
	"location": {
		"country": "Italia",
		"region": "Veneto",
		"province": "Belluno",
		"zone": "Marmolada",
		"points": {
			"parcheggio": {"latitude": 46.48, "longitude": 11.86},
			"attacco": {"latitude": 46.47, "longitude": 11.87, "map_link": true}
		}
	},
	"images": {
		"cresta": {"title": "La cresta", "url": "activities/x/cresta.webp", "type": "storage"}
	},
	"relation": {
		"sections": {
			"1": {"title": "Avvicinamento", "content": "Dal ${[parcheggio]pos(parcheggio)}"},
			"0": {"title": "Intro", "content": "Testo"}
		}
	},
	"tags": {"ferrata": true, "panoramica": false},
	"attestation": {"latitude": 46.47, "longitude": 11.87, "period": "01-06/30-09", "tokens": 30, "rank": 3},
	"metrics": {"difficoltà": 20, "esposizione": "15"},
	"published": true,
	"version": 4
}`

func TestDecode(t *testing.T) {
	a, err := Decode([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "ferrata-delle-trincee", a.ID)
	assert.Equal(t, CategoryFerrata, a.Category)
	require.NotNil(t, a.Location)
	assert.Equal(t, "Marmolada", a.Location.Zone)
	assert.Equal(t, []string{"parcheggio", "attacco"}, Keys(a.Location.Points))

	sections := a.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "1", sections[0].Key, "document order is kept")
	assert.Equal(t, []string{"0", "1"}, a.SortedSectionKeys())

	require.NotNil(t, a.Attestation)
	assert.True(t, a.Attestation.IsEnabled())
	assert.True(t, a.Attestation.HasCoordinates())
	assert.Equal(t, 30.0, *a.Attestation.Tokens)

	raw, ok := a.Extra("published")
	require.True(t, ok)
	assert.Equal(t, "true", string(raw))
	_, ok = a.Extra("category")
	assert.False(t, ok)
}

func TestEncode_RoundTrip(t *testing.T) {
	a, err := Decode([]byte(sampleDocument))
	require.NoError(t, err)

	data, err := a.Encode()
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "\n\t\"id\": ")
	assert.Contains(t, out, `"published": true`)
	assert.Contains(t, out, `"version": 4`)
	assert.Less(t, strings.Index(out, `"id"`), strings.Index(out, `"category"`))
	assert.Less(t, strings.Index(out, `"category"`), strings.Index(out, `"description"`), "decoded key order is kept")
	assert.Less(t, strings.Index(out, `"Avvicinamento"`), strings.Index(out, `"Intro"`))

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Keys(a.Tags), Keys(again.Tags))
	assert.Equal(t, a.Location.Zone, again.Location.Zone)
}

func TestEncode_NewKeysAppended(t *testing.T) {
	a, err := Decode([]byte(`{"category": "1"}`))
	require.NoError(t, err)

	a.EnsureTags().Set("lago", true)
	data, err := a.Encode()
	require.NoError(t, err)

	out := string(data)
	assert.Less(t, strings.Index(out, `"category"`), strings.Index(out, `"tags"`))
}

func TestEncode_KeepsNestedUnknownAndEmptyValues(t *testing.T) {
	doc := `{
		"id": "trincee",
		"description": "",
		"category": "0",
		"location": {
			"country": "Italia", "region": "Veneto", "province": "Belluno", "zone": "Marmolada",
			"altitude_unit": "m",
			"points": {
				"parcheggio": {"latitude": 46.48, "longitude": 11.86, "description": "", "map_link": false, "altitude": 1200}
			}
		},
		"images": {"cresta": {"title": "A & B <c>", "url": "x.webp", "type": "web", "author": "Mario"}},
		"relation": {"sections": {"0": {"title": "Intro", "content": "path a\\u0026b", "collapsed": true}}},
		"attestation": {"latitude": 46.47, "longitude": 11.87, "tokens": 12.5, "rank": 1.0, "enabled": false, "radius": 50}
	}`
	a, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 12.5, *a.Attestation.Tokens)
	assert.Equal(t, 1.0, *a.Attestation.Rank)

	data, err := a.Encode()
	require.NoError(t, err)
	out := string(data)

	for path, want := range map[string]string{
		"description":                            `""`,
		"location.altitude_unit":                 `"m"`,
		"location.points.parcheggio.description": `""`,
		"location.points.parcheggio.map_link":    "false",
		"location.points.parcheggio.altitude":    "1200",
		"images.cresta.author":                   `"Mario"`,
		"relation.sections.0.collapsed":          "true",
		"attestation.radius":                     "50",
		"attestation.enabled":                    "false",
		"attestation.tokens":                     "12.5",
	} {
		value := gjson.Get(out, path)
		if assert.True(t, value.Exists(), path) {
			assert.Equal(t, want, value.Raw, path)
		}
	}
	assert.Contains(t, out, `"title": "A & B <c>"`)
	assert.Contains(t, out, `"content": "path a\\u0026b"`, "escaped backslashes are kept")
	assert.NotContains(t, out, `\u003c`)
	assert.Less(t, strings.Index(out, `"longitude": 11.86`), strings.Index(out, `"altitude": 1200`))

	again, err := Decode(data)
	require.NoError(t, err)
	img, _ := again.Images.Get("cresta")
	assert.Equal(t, "A & B <c>", img.Title)
	section, _ := again.Relation.Sections.Get("0")
	assert.Equal(t, `path a\u0026b`, section.Content)
}

func TestEncode_OptionalKeys(t *testing.T) {
	a := &Activity{Category: CategoryTrekking}
	a.EnsureLocation().Points.Set("parcheggio", Point{})
	a.EnsureAttestation()

	data, err := a.Encode()
	require.NoError(t, err)
	out := string(data)

	assert.True(t, gjson.Get(out, "category").Exists())
	assert.True(t, gjson.Get(out, "location.points.parcheggio.latitude").Exists())
	for _, path := range []string{"id", "name", "description", "images", "relation", "location.points.parcheggio.map_link", "attestation.tokens", "attestation.enabled"} {
		assert.False(t, gjson.Get(out, path).Exists(), path)
	}

	decoded, err := Decode([]byte(`{"category": "1", "description": "Lago", "location": {"zone": "Garda"}}`))
	require.NoError(t, err)
	decoded.Location = nil
	decoded.Description = ""
	data, err = decoded.Encode()
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(data, "location").Exists(), "a removed object is dropped")
	assert.Equal(t, `""`, gjson.GetBytes(data, "description").Raw, "a present key keeps its emptied value")
}

func TestEnsureHelpers(t *testing.T) {
	a := &Activity{}
	assert.Nil(t, a.Points())
	assert.Nil(t, a.Sections())
	assert.False(t, a.Attestation.IsEnabled())

	a.EnsureLocation().Points.Set("parcheggio", Point{})
	a.EnsureSections().Set("0", Section{Title: "Intro"})
	a.EnsureImages().Set("foto", Image{Type: ImageWeb})

	assert.Len(t, a.Points(), 1)
	assert.Len(t, a.Sections(), 1)
	assert.True(t, Contains(a.Images, "foto"))
	assert.False(t, Contains(a.Tags, "foto"))
	assert.False(t, a.Points()[0].Value.HasCoordinates())
}

func TestImageType_Valid(t *testing.T) {
	assert.True(t, ImageStorage.Valid())
	assert.True(t, ImageWeb.Valid())
	assert.True(t, ImageLocal.Valid())
	assert.False(t, ImageType("ftp").Valid())
}

func TestStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	_, err := store.Load("/data/activities/x/x.json")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, afero.WriteFile(fs, "/data/activities/x/x.json", []byte(sampleDocument), 0644))
	a, err := store.Load("/data/activities/x/x.json")
	require.NoError(t, err)

	a.Name = "Trincee"
	require.NoError(t, store.Save("/data/activities/x/x.json", a))

	again, err := store.Load("/data/activities/x/x.json")
	require.NoError(t, err)
	assert.Equal(t, "Trincee", again.Name)

	require.NoError(t, afero.WriteFile(fs, "/broken.json", []byte("{"), 0644))
	_, err = store.Load("/broken.json")
	assert.Error(t, err)
}
