package readability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPrefersArticle(t *testing.T) {
	body := strings.Repeat("Photosynthesis converts light energy into chemical energy. ", 6)
	page := `<html><head><title>Plants</title><script>var tracking = 1;</script></head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <article>
    <h1>How plants eat</h1>
    <p>` + body + `</p>
    <ul><li>Chlorophyll absorbs light</li></ul>
  </article>
  <footer>Copyright</footer>
</body></html>`

	article, err := Extract(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Plants", article.Title)
	assert.True(t, strings.HasPrefix(article.Text, "How plants eat"))
	assert.Contains(t, article.Text, "Photosynthesis converts light energy")
	assert.Contains(t, article.Text, "Chlorophyll absorbs light")
	assert.NotContains(t, article.Text, "tracking")
	assert.NotContains(t, article.Text, "Home")
	assert.NotContains(t, article.Text, "Copyright")
}

func TestExtractFallsBackToDensestParagraphs(t *testing.T) {
	page := `<html><head><meta property="og:title" content="Cells"></head><body>
<div class="sidebar"><p>Short ad.</p></div>
<div class="content">
  <p>The cell is the basic structural unit of life.</p>
  <p>Mitochondria produce most of the chemical energy in cells.</p>
</div>
</body></html>`

	article, err := Extract(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Cells", article.Title)
	assert.Equal(t, "The cell is the basic structural unit of life.\n\nMitochondria produce most of the chemical energy in cells.", article.Text)
}

func TestExtractBodyOnly(t *testing.T) {
	article, err := Extract(strings.NewReader("<html><body>  just   some   text </body></html>"))
	require.NoError(t, err)
	assert.Equal(t, "just some text", article.Text)
}
