package arabic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNameHamzaSeats(t *testing.T) {
	assert.Equal(t, NormalizeName("احمد"), NormalizeName("أحمد"))
	assert.Equal(t, NormalizeName("ابراهيم"), NormalizeName("إبراهيم"))
	assert.Equal(t, NormalizeName("امنه"), NormalizeName("آمنة"))
}

func TestNormalizeNameDiacritics(t *testing.T) {
	assert.Equal(t, "محمد", NormalizeName("مُحَمَّد"))
	assert.Equal(t, "علي", NormalizeName("عَلِيّ"))
}

func TestNormalizeNameTaMarbuta(t *testing.T) {
	assert.Equal(t, NormalizeName("فاطمه"), NormalizeName("فاطمة"))
}

func TestNormalizeNameWhitespace(t *testing.T) {
	assert.Equal(t, "احمد علي", NormalizeName("  أحمد   علي "))
	assert.Equal(t, "احمد علي", NormalizeName("أحمد\tعلي"))
}

func TestNormalizeNameTatweel(t *testing.T) {
	assert.Equal(t, "محمد", NormalizeName("محـــمد"))
}

func TestJoinName(t *testing.T) {
	assert.Equal(t, "أحمد علي محمد الشهري", JoinName("أحمد", "علي", "محمد", "الشهري"))
	assert.Equal(t, "أحمد الشهري", JoinName("أحمد", "", " ", "الشهري"))
}
