package catalog

import (
	"testing"

	"github.com/listenupapp/circulation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libraryFixture(t *testing.T) *Catalog {
	t.Helper()
	return newTestCatalog(t,
		[3]string{"978-0134685991", "Effective Java", "Joshua Bloch"},
		[3]string{"978-0596009205", "Head First Java", "Kathy Sierra"},
		[3]string{"978-1617294945", "Go in Action", "William Kennedy"},
		[3]string{"978-0262033848", "Introduction to Algorithms", "Cormen"},
	)
}

func TestSearch_BlankQueryIsEmpty(t *testing.T) {
	c := libraryFixture(t)

	assert.Empty(t, c.Search("", domain.SearchTitle))
	assert.Empty(t, c.Search("   ", domain.SearchAll))
	assert.NotNil(t, c.Search("", domain.SearchTitle))
}

func TestSearch_CaseInsensitiveTitle(t *testing.T) {
	c := libraryFixture(t)

	found := c.Search("EFFECTIVE", domain.SearchTitle)

	assert.Equal(t, []string{"978-0134685991"}, isbns(found))
}

func TestSearch_TrimsQuery(t *testing.T) {
	c := libraryFixture(t)

	found := c.Search("  java ", domain.SearchTitle)

	assert.Equal(t, []string{"978-0134685991", "978-0596009205"}, isbns(found))
}

func TestSearch_FieldsAreIsolated(t *testing.T) {
	c := libraryFixture(t)

	assert.Empty(t, c.Search("bloch", domain.SearchTitle))
	assert.Equal(t, []string{"978-0134685991"}, isbns(c.Search("bloch", domain.SearchAuthor)))
	assert.Equal(t, []string{"978-1617294945"}, isbns(c.Search("1617", domain.SearchISBN)))
}

func TestSearch_AllMatchesAuthorOnlyAndISBNOnly(t *testing.T) {
	c := libraryFixture(t)

	assert.Equal(t, []string{"978-0596009205"}, isbns(c.Search("sierra", domain.SearchAll)))
	assert.Equal(t, []string{"978-0262033848"}, isbns(c.Search("0262033848", domain.SearchAll)))
}

func TestSearch_UnknownFieldIsEmpty(t *testing.T) {
	c := libraryFixture(t)
	assert.Empty(t, c.Search("java", domain.SearchField("PUBLISHER")))
}

func TestSort_ByTitleAndDescending(t *testing.T) {
	c := libraryFixture(t)

	asc := c.Sort(domain.SortBookTitle, true)
	assert.Equal(t, []string{"Effective Java", "Go in Action", "Head First Java", "Introduction to Algorithms"}, titles(asc))

	desc := c.Sort(domain.SortBookTitle, false)
	assert.Equal(t, []string{"Introduction to Algorithms", "Head First Java", "Go in Action", "Effective Java"}, titles(desc))
}

func TestSort_ByISBNAndAuthor(t *testing.T) {
	c := libraryFixture(t)

	assert.Equal(t,
		[]string{"978-0134685991", "978-0262033848", "978-0596009205", "978-1617294945"},
		isbns(c.Sort(domain.SortBookISBN, true)))
	assert.Equal(t,
		[]string{"Cormen", "Joshua Bloch", "Kathy Sierra", "William Kennedy"},
		authors(c.Sort(domain.SortBookAuthor, true)))
}

func TestSort_ByStatusName(t *testing.T) {
	c := libraryFixture(t)
	b1, _ := c.Get("978-0596009205")
	b2, _ := c.Get("978-0262033848")
	require.NoError(t, c.Loan(b1))
	require.NoError(t, c.Remove(b2))

	sorted := c.Sort(domain.SortBookStatus, true)

	assert.Equal(t, []domain.BookStatus{
		domain.StatusAvailable, domain.StatusAvailable, domain.StatusCheckedOut, domain.StatusOutOfCirculation,
	}, statuses(sorted))
}

func TestSort_IsStableForEqualTitles(t *testing.T) {
	c := newTestCatalog(t,
		[3]string{"3", "Same", "C"},
		[3]string{"1", "Same", "A"},
		[3]string{"2", "Same", "B"},
	)

	assert.Equal(t, []string{"3", "1", "2"}, isbns(c.Sort(domain.SortBookTitle, true)))
	assert.Equal(t, []string{"3", "1", "2"}, isbns(c.Sort(domain.SortBookTitle, false)))
}

func TestSearchAndSort(t *testing.T) {
	c := libraryFixture(t)

	found := c.SearchAndSort("java", domain.SearchTitle, domain.SortBookAuthor, false)
	assert.Equal(t, []string{"Kathy Sierra", "Joshua Bloch"}, authors(found))

	assert.Empty(t, c.SearchAndSort("cobol", domain.SearchAll, domain.SortBookTitle, true))
}

func TestSearchByRelevance_ExactThenPrefixThenSubstring(t *testing.T) {
	c := newTestCatalog(t,
		[3]string{"3", "Learning Java", "X"},
		[3]string{"2", "Java Basics", "Y"},
		[3]string{"1", "Java", "Z"},
		[3]string{"4", "Python", "W"},
	)

	ranked := c.SearchByRelevance("java", domain.SearchTitle)

	assert.Equal(t, []string{"Java", "Java Basics", "Learning Java"}, titles(ranked))
}

func TestSearchByRelevance_WeightsFieldsForAll(t *testing.T) {
	c := newTestCatalog(t,
		[3]string{"1", "A Tale", "Go Master"},
		[3]string{"2", "Go", "Someone"},
		[3]string{"go", "Nothing", "Nobody"},
	)

	// title exact 10*3, author prefix 5*2, isbn exact 10*1
	assert.Equal(t, 30, RelevanceScore(mustGet(t, c, "2"), "go", domain.SearchAll))
	assert.Equal(t, 10, RelevanceScore(mustGet(t, c, "1"), "GO", domain.SearchAll))
	assert.Equal(t, 10, RelevanceScore(mustGet(t, c, "go"), "go", domain.SearchAll))
	assert.Equal(t, 5, RelevanceScore(mustGet(t, c, "1"), "go", domain.SearchAuthor))

	ranked := c.SearchByRelevance("go", domain.SearchAll)
	assert.Equal(t, []string{"2", "1", "go"}, isbns(ranked), "ties keep insertion order")
}

func TestSearchByRelevance_BlankAndNoMatch(t *testing.T) {
	c := libraryFixture(t)

	assert.Empty(t, c.SearchByRelevance(" ", domain.SearchAll))
	assert.Empty(t, c.SearchByRelevance("cobol", domain.SearchAll))
}

func mustGet(t *testing.T, c *Catalog, isbn string) *domain.Book {
	t.Helper()
	b, err := c.Get(isbn)
	require.NoError(t, err)
	return b
}

func titles(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func authors(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Author
	}
	return out
}

func statuses(books []*domain.Book) []domain.BookStatus {
	out := make([]domain.BookStatus, len(books))
	for i, b := range books {
		out[i] = b.Status()
	}
	return out
}
