package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAskParamsValidate(t *testing.T) {
	params := &AskParams{Question: "how do refunds work?"}
	assert.Nil(t, params.Validate())

	empty := &AskParams{}
	errs := empty.Validate()
	assert.Contains(t, errs, "Question")
	assert.Equal(t, "failed on 'required' tag", errs["Question"])
}
