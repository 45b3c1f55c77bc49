package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/listenupapp/circulation/internal/backup"
	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/listenupapp/circulation/internal/service"
)

const prompt = "library> "

// errQuit ends the read loop.
var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	args  int // minimum argument count
	run   func(ctx context.Context, args []string) error
}

// Shell reads commands line by line and prints their results.
type Shell struct {
	svc      *service.LibraryService
	backups  *backup.Service
	out      io.Writer
	today    func() time.Time
	commands map[string]command
}

// NewShell creates a shell over svc writing to out.
func NewShell(svc *service.LibraryService, out io.Writer, today func() time.Time) *Shell {
	s := &Shell{svc: svc, out: out, today: today}
	s.commands = map[string]command{
		"help":     {usage: "help", help: "list commands", run: s.help},
		"register": {usage: "register <user> <password>", help: "create an account", args: 2, run: s.register},
		"login":    {usage: "login <user> <password>", help: "start a session", args: 2, run: s.login},
		"logout":   {usage: "logout", help: "end the session", run: s.logout},
		"whoami":   {usage: "whoami", help: "show the current user", run: s.whoami},
		"add":      {usage: `add <isbn> "<title>" "<author>"`, help: "catalogue a book", args: 3, run: s.add},
		"remove":   {usage: "remove <isbn>", help: "take a book out of circulation", args: 1, run: s.remove},
		"loan":     {usage: "loan <isbn>", help: "borrow a book", args: 1, run: s.loan},
		"return":   {usage: "return <isbn>", help: "return a book", args: 1, run: s.returnBook},
		"renew":    {usage: "renew <isbn> [days]", help: "extend a loan", args: 1, run: s.renew},
		"books":    {usage: "books [sort] [asc|desc]", help: "list the catalog", run: s.books},
		"search":   {usage: `search <field> "<query>" [sort] [asc|desc]`, help: "filter and sort books", args: 2, run: s.search},
		"find":     {usage: `find "<query>"`, help: "search with your saved preferences", args: 1, run: s.find},
		"rank":     {usage: `rank <field> "<query>"`, help: "rank books by relevance", args: 2, run: s.rank},
		"fts":      {usage: `fts "<query>" [limit]`, help: "full-text search", args: 1, run: s.fullText},
		"loans":    {usage: "loans [sort] [asc|desc]", help: "list every loan", run: s.loans},
		"mine":     {usage: "mine [all]", help: "list your loans", run: s.mine},
		"overdue":  {usage: "overdue", help: "mark and list overdue loans", run: s.overdue},
		"prefs":    {usage: "prefs [book-sort asc|desc field loan-sort asc|desc]", help: "show or save preferences", run: s.prefs},
		"backup":   {usage: "backup", help: "archive the library (admin)", run: s.backup},
		"backups":  {usage: "backups", help: "list archives", run: s.listBackups},
		"quit":     {usage: "quit", help: "leave the shell", run: func(context.Context, []string) error { return errQuit }},
	}
	return s
}

// WithBackups enables the backup commands.
func (s *Shell) WithBackups(b *backup.Service) *Shell {
	s.backups = b
	return s
}

// Run executes commands from in until EOF, quit, or ctx is cancelled.
func (s *Shell) Run(ctx context.Context, in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(s.out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		if err := s.Exec(ctx, scanner.Text()); errors.Is(err, errQuit) {
			return nil
		}
	}
}

// Exec runs one command line. Failures are printed; only quit is returned.
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields, err := splitLine(line)
	if err != nil {
		s.printf("error: %v\n", err)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])
	if name == "exit" {
		name = "quit"
	}
	cmd, ok := s.commands[name]
	if !ok {
		s.printf("unknown command %q, type help\n", fields[0])
		return nil
	}
	args := fields[1:]
	if len(args) < cmd.args {
		s.printf("usage: %s\n", cmd.usage)
		return nil
	}

	if err := cmd.run(ctx, args); err != nil {
		if errors.Is(err, errQuit) {
			return err
		}
		s.printError(err)
	}
	return nil
}

// splitLine splits on spaces; double quotes group words.
func splitLine(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(line))
	r.Comma = ' '
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot parse line: %w", err)
	}
	return slices.DeleteFunc(record, func(f string) bool { return f == "" }), nil
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) printError(err error) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		s.printf("error: %s\n", domainErr.Error())
		return
	}
	s.printf("error: %v\n", err)
}

func (s *Shell) help(context.Context, []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", s.commands[name].usage, s.commands[name].help)
	}
	return w.Flush()
}

func (s *Shell) register(ctx context.Context, args []string) error {
	msg, err := s.svc.Register(ctx, args[0], args[1])
	if msg != "" {
		s.printf("%s\n", msg)
	}
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (s *Shell) login(ctx context.Context, args []string) error {
	user, err := s.svc.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("Welcome, %s.\n", user.DisplayName())
	return nil
}

func (s *Shell) logout(context.Context, []string) error {
	s.svc.Logout()
	s.printf("Logged out.\n")
	return nil
}

func (s *Shell) whoami(context.Context, []string) error {
	user, ok := s.svc.CurrentUser()
	if !ok {
		s.printf("Not logged in.\n")
		return nil
	}
	role := "member"
	if user.IsAdmin {
		role = "admin"
	}
	s.printf("%s (%s)\n", user.DisplayName(), role)
	return nil
}

func (s *Shell) add(ctx context.Context, args []string) error {
	book, err := s.svc.AddBook(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	s.printf("Added %s %q.\n", book.ISBN(), book.Title)
	return nil
}

func (s *Shell) remove(ctx context.Context, args []string) error {
	if err := s.svc.RemoveBook(ctx, args[0]); err != nil {
		return err
	}
	s.printf("Removed %s from circulation.\n", args[0])
	return nil
}

func (s *Shell) loan(ctx context.Context, args []string) error {
	loan, err := s.svc.LoanBook(ctx, args[0])
	if err != nil {
		return err
	}
	s.printf("Loaned %q, due %s.\n", loan.Book().Title, loan.DueDate().Format(domain.DateLayout))
	return nil
}

func (s *Shell) returnBook(ctx context.Context, args []string) error {
	loan, err := s.svc.ReturnBook(ctx, args[0])
	if err != nil {
		return err
	}
	if loan == nil {
		s.printf("Returned %s.\n", args[0])
		return nil
	}
	s.printf("Returned %q, loan %s closed.\n", loan.Book().Title, loan.ID())
	return nil
}

func (s *Shell) renew(ctx context.Context, args []string) error {
	days := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return domainerrors.InvalidArgumentf("days must be a number, got %q", args[1])
		}
		days = n
	}

	loan, err := s.svc.RenewLoan(ctx, args[0], days)
	if err != nil {
		return err
	}
	s.printf("Renewed %s, now due %s.\n", loan.ID(), loan.DueDate().Format(domain.DateLayout))
	return nil
}

func (s *Shell) books(_ context.Context, args []string) error {
	if len(args) == 0 {
		return s.printBooks(s.svc.ViewAllBooksPreferred())
	}
	criteria, ascending, err := bookOrder(args)
	if err != nil {
		return err
	}
	return s.printBooks(s.svc.ViewAllBooksSorted(criteria, ascending))
}

func (s *Shell) search(_ context.Context, args []string) error {
	field, err := domain.ParseSearchField(args[0])
	if err != nil {
		return err
	}
	criteria, ascending := domain.SortBookTitle, true
	if len(args) > 2 {
		if criteria, ascending, err = bookOrder(args[2:]); err != nil {
			return err
		}
	}
	return s.printBooks(s.svc.SearchAndSortBooks(args[1], field, criteria, ascending))
}

func (s *Shell) find(_ context.Context, args []string) error {
	return s.printBooks(s.svc.SearchBooksPreferred(args[0]))
}

func (s *Shell) rank(_ context.Context, args []string) error {
	field, err := domain.ParseSearchField(args[0])
	if err != nil {
		return err
	}
	return s.printBooks(s.svc.SearchBooksByRelevance(args[1], field))
}

func (s *Shell) fullText(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return domainerrors.InvalidArgumentf("limit must be a positive number, got %q", args[1])
		}
		limit = n
	}
	return s.printBooks(s.svc.FullTextSearch(ctx, args[0], limit))
}

func (s *Shell) loans(_ context.Context, args []string) error {
	if len(args) == 0 {
		return s.printLoans(s.svc.ViewLoansPreferred())
	}
	criteria, err := domain.ParseLoanSort(args[0])
	if err != nil {
		return err
	}
	ascending, err := direction(args[1:])
	if err != nil {
		return err
	}
	return s.printLoans(s.svc.ViewLoansSorted(criteria, ascending))
}

func (s *Shell) mine(_ context.Context, args []string) error {
	if _, ok := s.svc.CurrentUser(); !ok {
		return domainerrors.NoSession("log in to see your loans")
	}
	includeReturned := len(args) > 0 && strings.EqualFold(args[0], "all")
	return s.printLoans(s.svc.GetMyLoans(includeReturned))
}

func (s *Shell) overdue(ctx context.Context, _ []string) error {
	today := s.today()
	if marked := s.svc.RefreshOverdue(ctx, today); len(marked) > 0 {
		s.printf("%d loan(s) newly overdue.\n", len(marked))
	}
	return s.printLoans(s.svc.OverdueLoans(today))
}

func (s *Shell) prefs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		p := s.svc.Preferences()
		s.printf("books: %s %s, search: %s, loans: %s %s\n",
			p.BookSort, directionLabel(p.BookSortAscending),
			p.SearchField,
			p.LoanSort, directionLabel(p.LoanSortAscending),
		)
		return nil
	}
	if len(args) < 5 {
		return domainerrors.InvalidArgument("usage: " + s.commands["prefs"].usage)
	}

	bookSort, bookAsc, err := bookOrder(args[0:2])
	if err != nil {
		return err
	}
	field, err := domain.ParseSearchField(args[2])
	if err != nil {
		return err
	}
	loanSort, err := domain.ParseLoanSort(args[3])
	if err != nil {
		return err
	}
	loanAsc, err := direction(args[4:5])
	if err != nil {
		return err
	}

	if _, err := s.svc.SavePreferences(ctx, domain.Preferences{
		BookSort:          bookSort,
		BookSortAscending: bookAsc,
		SearchField:       field,
		LoanSort:          loanSort,
		LoanSortAscending: loanAsc,
	}); err != nil {
		return err
	}
	s.printf("Preferences saved.\n")
	return nil
}

func (s *Shell) backup(ctx context.Context, _ []string) error {
	if s.backups == nil {
		return domainerrors.Internal("backups are not configured")
	}
	user, ok := s.svc.CurrentUser()
	if !ok {
		return domainerrors.NoSession("log in to create a backup")
	}
	if !user.IsAdmin {
		return domainerrors.InvalidArgument("only the library administrator can create backups")
	}

	result, err := s.backups.Create(ctx, backup.Options{CreatedBy: user.DisplayName()})
	if err != nil {
		return err
	}
	s.printf("Backup %s written (%d books, %d loans, %s).\n",
		result.ID, result.Counts.Books, result.Counts.Loans, humanize.Bytes(uint64(result.Size)))
	return nil
}

func (s *Shell) listBackups(ctx context.Context, _ []string) error {
	if s.backups == nil {
		return domainerrors.Internal("backups are not configured")
	}
	list, err := s.backups.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		s.printf("No backups.\n")
		return nil
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIZE\tCREATED")
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, humanize.Bytes(uint64(b.Size)), humanize.Time(b.CreatedAt))
	}
	return w.Flush()
}

func bookOrder(args []string) (domain.BookSortCriteria, bool, error) {
	criteria, err := domain.ParseBookSort(args[0])
	if err != nil {
		return "", false, err
	}
	ascending, err := direction(args[1:])
	return criteria, ascending, err
}

// direction reads an optional asc|desc argument; ascending is the default.
func direction(args []string) (bool, error) {
	if len(args) == 0 {
		return true, nil
	}
	switch strings.ToLower(args[0]) {
	case "asc":
		return true, nil
	case "desc":
		return false, nil
	default:
		return false, domainerrors.InvalidArgumentf("sort direction must be asc or desc, got %q", args[0])
	}
}

func directionLabel(ascending bool) string {
	if ascending {
		return "asc"
	}
	return "desc"
}

func (s *Shell) printBooks(books []*domain.Book) error {
	if len(books) == 0 {
		s.printf("No books.\n")
		return nil
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ISBN\tTITLE\tAUTHOR\tSTATUS")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ISBN(), b.Title, b.Author, b.Status())
	}
	return w.Flush()
}

func (s *Shell) printLoans(loans []*domain.Loan) error {
	if len(loans) == 0 {
		s.printf("No loans.\n")
		return nil
	}

	today := domain.DateOf(s.today())
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOAN\tTITLE\tBORROWER\tLOANED\tDUE\tRETURNED")
	for _, l := range loans {
		returned := "-"
		due := l.DueDate().Format(domain.DateLayout)
		if rd := l.ReturnDate(); rd != nil {
			returned = rd.Format(domain.DateLayout)
		} else {
			due += " (" + relativeDue(l.DueDate(), today) + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID(), l.Book().Title, l.Borrower().DisplayName(),
			l.LoanDate().Format(domain.DateLayout), due, returned)
	}
	return w.Flush()
}

// relativeDue describes an open loan's due date against today.
func relativeDue(due, today time.Time) string {
	if due.Equal(today) {
		return "due today"
	}
	if due.Before(today) {
		return "overdue " + strings.TrimSpace(humanize.RelTime(due, today, "", ""))
	}
	return "due in " + strings.TrimSpace(humanize.RelTime(today, due, "", ""))
}
