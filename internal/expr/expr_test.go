package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_FirstMatchingClauseWins(t *testing.T) {
	e, err := Parse(`{{DEFAULT "fallback" HASROLE(111) SAYS "special"}}`)
	require.NoError(t, err)

	assert.Equal(t, "special", e.Evaluate(NewRoleSet("111")))
	assert.Equal(t, "fallback", e.Evaluate(NewRoleSet("222")))
	assert.Equal(t, "fallback", e.Evaluate(NewRoleSet()))
}

func TestEvaluate_HasRoleRequiresAll(t *testing.T) {
	e, err := Parse(`{{DEFAULT "no" HASROLE(111, 222) SAYS "both"}}`)
	require.NoError(t, err)

	assert.Equal(t, "both", e.Evaluate(NewRoleSet("111", "222", "333")))
	assert.Equal(t, "no", e.Evaluate(NewRoleSet("111")))
}

func TestEvaluate_HasAnyRole(t *testing.T) {
	e, err := Parse(`{{DEFAULT "no" HASANYROLE(111, 222) SAYS "either"}}`)
	require.NoError(t, err)

	assert.Equal(t, "either", e.Evaluate(NewRoleSet("222")))
	assert.Equal(t, "no", e.Evaluate(NewRoleSet("333")))
}

func TestEvaluate_ClauseOrder(t *testing.T) {
	e, err := Parse(`{{DEFAULT "d" HASANYROLE(1) SAYS "first" HASANYROLE(1) SAYS "second"}}`)
	require.NoError(t, err)

	assert.Equal(t, "first", e.Evaluate(NewRoleSet("1")))
}

func TestEvaluate_FieldValuePlaceholder(t *testing.T) {
	e, err := Parse(`{{DEFAULT "d" FIELDVALUE(abc-123) SAYS "ignored"}}`)
	require.NoError(t, err)

	// FIELDVALUE is parsed but deliberately not substituted.
	assert.Equal(t, FieldValuePlaceholder, e.Evaluate(NewRoleSet()))
}

func TestParse_Escapes(t *testing.T) {
	e, err := Parse(`{{DEFAULT "say \"hi\"\nbye"}}`)
	require.NoError(t, err)

	assert.Equal(t, "say \"hi\"\nbye", e.Default)
}

func TestParse_CaseInsensitiveKeywords(t *testing.T) {
	e, err := Parse(`{{default "d" hasrole(9) says "s"}}`)
	require.NoError(t, err)
	require.Len(t, e.Clauses, 1)
	assert.Equal(t, CmdHasRole, e.Clauses[0].Command.Kind)
}

func TestParse_MalformedIsDistinctFromLiteral(t *testing.T) {
	malformed := `{{DEFAULT "x" HASROLE(111) SAYS}}`

	assert.True(t, IsExpression(malformed))
	assert.False(t, IsValid(malformed))
	assert.Equal(t, "malformed expression", Describe(malformed))

	_, err := Parse(malformed)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotExpression)
}

func TestParse_NotExpression(t *testing.T) {
	_, err := Parse("just some text")
	assert.ErrorIs(t, err, ErrNotExpression)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "literal", Describe("general chat"))
	assert.Equal(t, "expression", Describe(`{{DEFAULT "a"}}`))
	assert.Equal(t, "malformed expression", Describe(`{{DEFAULT }}`))
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		`{{}}`,
		`{{DEFAULT}}`,
		`{{DEFAULT "x" NOPE(1) SAYS "y"}}`,
		`{{DEFAULT "x" HASROLE() SAYS "y"}}`,
		`{{DEFAULT "x" HASROLE(1,) SAYS "y"}}`,
		`{{DEFAULT "unterminated}}`,
		`{{DEFAULT "x" HASROLE(1) "y"}}`,
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, c)
	}
}

func TestEvaluateText(t *testing.T) {
	out, err := EvaluateText("plain channel id 42", NewRoleSet())
	require.NoError(t, err)
	assert.Equal(t, "plain channel id 42", out)

	out, err = EvaluateText(`{{DEFAULT "a" HASROLE(5) SAYS "b"}}`, NewRoleSet("5"))
	require.NoError(t, err)
	assert.Equal(t, "b", out)

	_, err = EvaluateText(`{{DEFAULT broken}}`, NewRoleSet())
	assert.Error(t, err)
}
