package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestFieldMerger_MergeWebsite(t *testing.T) {
	m := NewFieldMerger()
	a := func(v string) fieldValue { return fieldValue{Value: v, Source: models.SourceA} }
	b := func(v string) fieldValue { return fieldValue{Value: v, Source: models.SourceB} }

	t.Run("https beats http on the same host", func(t *testing.T) {
		v, c := m.MergeWebsite(a("http://acme.com"), b("https://acme.com"))
		assert.Equal(t, "https://acme.com", v)
		assert.Nil(t, c)
	})

	t.Run("primary wins when schemes tie", func(t *testing.T) {
		v, _ := m.MergeWebsite(a("https://acme.com"), b("https://www.acme.com/"))
		assert.Equal(t, "https://acme.com", v)
	})

	t.Run("empty primary takes the other value", func(t *testing.T) {
		v, c := m.MergeWebsite(a(""), b("http://acme.com"))
		assert.Equal(t, "http://acme.com", v)
		assert.Nil(t, c)
	})

	t.Run("different hosts are a conflict", func(t *testing.T) {
		v, c := m.MergeWebsite(a("http://acme.com"), b("https://acme-plumbing.com"))
		assert.Equal(t, "https://acme-plumbing.com", v)
		require.NotNil(t, c)
		assert.Equal(t, ResolutionHTTPSPreferred, c.Resolution)
		assert.Equal(t, "https://acme-plumbing.com", c.ResolvedValue)
	})
}

func TestFieldMerger_MergePhone(t *testing.T) {
	m := NewFieldMerger()
	a := func(v string) fieldValue { return fieldValue{Value: v, Source: models.SourceA} }
	b := func(v string) fieldValue { return fieldValue{Value: v, Source: models.SourceB} }

	t.Run("same line keeps the longer number", func(t *testing.T) {
		v, c := m.MergePhone(a("555-123-4567"), b("+1 555 123 4567"))
		assert.Equal(t, "+1 555 123 4567", v)
		assert.Nil(t, c)
	})

	t.Run("same digits keep primary formatting", func(t *testing.T) {
		v, _ := m.MergePhone(a("(555) 123-4567"), b("555.123.4567"))
		assert.Equal(t, "(555) 123-4567", v)
	})

	t.Run("different lines keep primary and report", func(t *testing.T) {
		v, c := m.MergePhone(a("555-123-4567"), b("555-000-0000"))
		assert.Equal(t, "555-123-4567", v)
		require.NotNil(t, c)
		assert.Equal(t, models.FieldPhone, c.Field)
		assert.Equal(t, ResolutionPrimarySource, c.Resolution)
	})

	t.Run("one side missing", func(t *testing.T) {
		v, c := m.MergePhone(a(""), b("555-000-0000"))
		assert.Equal(t, "555-000-0000", v)
		assert.Nil(t, c)
	})
}

func TestFieldMerger_MergeText(t *testing.T) {
	m := NewFieldMerger()

	t.Run("equivalent addresses are not a conflict", func(t *testing.T) {
		v, c := m.MergeText(models.FieldAddress, "naddress",
			fieldValue{Value: "123 Main St", Source: models.SourceA},
			fieldValue{Value: "123 Main Street", Source: models.SourceB})
		assert.Equal(t, "123 Main St", v)
		assert.Nil(t, c)
	})

	t.Run("empty primary", func(t *testing.T) {
		v, c := m.MergeText(models.FieldAddress, "naddress",
			fieldValue{Source: models.SourceA},
			fieldValue{Value: "9 Elm St", Source: models.SourceB})
		assert.Equal(t, "9 Elm St", v)
		assert.Nil(t, c)
	})
}
