package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for C++ extraction:
// - In-class methods take the class as container
// - Out-of-line A::b definitions take the qualifier as container
// - Constructors are methods named after their class
// - Namespaced free functions keep the namespace but stay functions
// - ns::f(), obj->m(), obj.m() and f<int>() reduce to the trailing name

const cppSource = `namespace geo {

int clamp(int v) {
    return std::max(v, 0);
}

class Shape {
public:
    Shape(int sides) : sides_(sides) {}
    int area() const {
        return compute<int>(sides_);
    }
private:
    int sides_;
};

}

double geo::Shape::perimeter() {
    auto p = this->helper();
    return geo::clamp(p) + scale(p);
}
`

func TestCpp_Definitions(t *testing.T) {
	t.Parallel()

	result, err := Extract("geo/shape.cpp", []byte(cppSource))
	require.NoError(t, err)
	assert.Equal(t, LangCpp, result.Language)

	defs := defsByName(result)
	require.Len(t, defs, 4)

	clamp := defs["clamp"]
	assert.Equal(t, KindFunction, clamp.Kind)
	assert.Equal(t, "geo", clamp.Container)

	ctor := defs["Shape"]
	assert.Equal(t, KindConstructor, ctor.Kind)
	assert.Equal(t, "Shape", ctor.Container)

	area := defs["area"]
	assert.Equal(t, KindMethod, area.Kind)
	assert.Equal(t, "Shape", area.Container)
	assert.Equal(t, "int area() const", area.Signature)

	perimeter := defs["perimeter"]
	assert.Equal(t, KindMethod, perimeter.Kind)
	assert.Equal(t, "geo::Shape", perimeter.Container)
}

func TestCpp_Calls(t *testing.T) {
	t.Parallel()

	result, err := Extract("geo/shape.cpp", []byte(cppSource))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"clamp->max",
		"area->compute",
		"perimeter->helper",
		"perimeter->clamp",
		"perimeter->scale",
	}, callPairs(result))
}
