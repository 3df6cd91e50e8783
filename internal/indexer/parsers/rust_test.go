package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Rust extraction:
// - Free functions are KindFunction; impl and trait functions are methods
// - pub marks a definition exported
// - Type::f(), obj.m(), f::<T>() reduce to the trailing name
// - Macro invocations are not calls

const rustSource = `pub struct Stack<T> {
    items: Vec<T>,
}

impl<T> Stack<T> {
    pub fn new() -> Self {
        Stack { items: Vec::new() }
    }

    fn push(&mut self, item: T) {
        self.items.push(item);
        log_size::<T>(self.items.len());
    }
}

fn log_size<T>(n: usize) {
    println!("{}", n);
}
`

func TestRust_Definitions(t *testing.T) {
	t.Parallel()

	result, err := Extract("src/stack.rs", []byte(rustSource))
	require.NoError(t, err)
	assert.Equal(t, LangRust, result.Language)

	defs := defsByName(result)
	require.Len(t, defs, 3)

	newFn := defs["new"]
	assert.Equal(t, KindMethod, newFn.Kind)
	assert.Equal(t, "Stack", newFn.Container)
	assert.True(t, newFn.Exported)
	assert.Equal(t, "pub fn new() -> Self", newFn.Signature)

	assert.False(t, defs["push"].Exported)
	assert.Equal(t, KindFunction, defs["log_size"].Kind)
	assert.Empty(t, defs["log_size"].Container)
}

func TestRust_Calls(t *testing.T) {
	t.Parallel()

	result, err := Extract("src/stack.rs", []byte(rustSource))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"new->new",
		"push->push",
		"push->log_size",
		"push->len",
	}, callPairs(result))
}
