package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/fotoescola/core/blog"
	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/payment"
)

type (
	fixtures struct {
		Courses      []courseFixture      `yaml:"courses"`
		Posts        []postFixture        `yaml:"posts"`
		Transactions []transactionFixture `yaml:"transactions"`
	}

	courseFixture struct {
		Title         string         `yaml:"title"`
		Summary       string         `yaml:"summary"`
		Level         string         `yaml:"level"`
		Price         string         `yaml:"price"`
		DurationHours int            `yaml:"duration_hours"`
		Published     bool           `yaml:"published"`
		Classes       []classFixture `yaml:"classes"`
	}

	classFixture struct {
		Instructor string    `yaml:"instructor"`
		Location   string    `yaml:"location"`
		StartsAt   time.Time `yaml:"starts_at"`
		EndsAt     time.Time `yaml:"ends_at"`
		Seats      int       `yaml:"seats"`
	}

	postFixture struct {
		Title     string   `yaml:"title"`
		Excerpt   string   `yaml:"excerpt"`
		Body      string   `yaml:"body"`
		Author    string   `yaml:"author"`
		Tags      []string `yaml:"tags"`
		Published bool     `yaml:"published"`
	}

	transactionFixture struct {
		PayerName     string `yaml:"payer_name"`
		PayerEmail    string `yaml:"payer_email"`
		PayerDocument string `yaml:"payer_document"`
		Address       struct {
			Street     string `yaml:"street"`
			Number     string `yaml:"number"`
			Complement string `yaml:"complement"`
			District   string `yaml:"district"`
			City       string `yaml:"city"`
			CityCode   string `yaml:"city_code"`
			State      string `yaml:"state"`
			ZipCode    string `yaml:"zip_code"`
		} `yaml:"address"`
		Amount      string `yaml:"amount"`
		Method      string `yaml:"method"`
		Description string `yaml:"description"`
		Status      string `yaml:"status"` // pending (default), completed or failed
	}
)

func (cli *commandLine) seedFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "opening fixtures")
	}
	defer f.Close()
	return cli.seed(context.Background(), f)
}

// seed validates and stores every fixture of r, stopping at the first invalid one.
func (cli *commandLine) seed(ctx context.Context, r io.Reader) error {
	var fx fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return errors.Wrap(err, "decoding fixtures")
	}

	for i, cf := range fx.Courses {
		if err := cli.seedCourse(ctx, cf); err != nil {
			return errors.Wrapf(err, "courses[%d]", i)
		}
	}
	for i, pf := range fx.Posts {
		np := blog.NewPost{
			Title:       pf.Title,
			Excerpt:     pf.Excerpt,
			Body:        pf.Body,
			Author:      pf.Author,
			Tags:        pf.Tags,
			IsPublished: pf.Published,
		}
		if err := np.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "posts[%d]", i)
		}
		if _, err := cli.blogSvc.Create(ctx, np); err != nil {
			return errors.Wrapf(err, "posts[%d]", i)
		}
	}
	for i, tf := range fx.Transactions {
		if err := cli.seedTransaction(ctx, tf); err != nil {
			return errors.Wrapf(err, "transactions[%d]", i)
		}
	}

	cli.logger.Infow("fixtures loaded",
		"courses", len(fx.Courses),
		"posts", len(fx.Posts),
		"transactions", len(fx.Transactions),
	)
	return nil
}

func (cli *commandLine) seedCourse(ctx context.Context, cf courseFixture) error {
	price, err := decimal.NewFromString(cf.Price)
	if err != nil {
		return errors.Wrapf(err, "price %q", cf.Price)
	}
	nc := course.NewCourse{
		Title:         cf.Title,
		Summary:       cf.Summary,
		Level:         course.Level(cf.Level),
		Price:         price,
		DurationHours: cf.DurationHours,
		IsPublished:   cf.Published,
	}
	if err = nc.Validate(cli.validate); err != nil {
		return err
	}
	c, err := cli.courseSvc.Create(ctx, nc)
	if err != nil {
		return err
	}

	for _, clf := range cf.Classes {
		ncl := course.NewClass{
			Instructor: clf.Instructor,
			Location:   clf.Location,
			StartsAt:   clf.StartsAt,
			EndsAt:     clf.EndsAt,
			Seats:      clf.Seats,
		}
		if err = ncl.Validate(cli.validate); err != nil {
			return errors.Wrap(err, c.Slug)
		}
		if _, err = cli.courseSvc.ScheduleClass(ctx, c.ID, ncl); err != nil {
			return err
		}
	}
	return nil
}

func (cli *commandLine) seedTransaction(ctx context.Context, tf transactionFixture) error {
	status := payment.Status(tf.Status)
	switch status {
	case "", payment.StatusPending, payment.StatusCompleted, payment.StatusFailed:
	default:
		return errors.Errorf("unknown status %q", tf.Status)
	}

	amount, err := decimal.NewFromString(tf.Amount)
	if err != nil {
		return errors.Wrapf(err, "amount %q", tf.Amount)
	}
	nt := payment.NewTransaction{
		PayerName:     tf.PayerName,
		PayerEmail:    tf.PayerEmail,
		PayerDocument: tf.PayerDocument,
		PayerAddress: payment.Address{
			Street:     tf.Address.Street,
			Number:     tf.Address.Number,
			Complement: tf.Address.Complement,
			District:   tf.Address.District,
			City:       tf.Address.City,
			CityCode:   tf.Address.CityCode,
			State:      tf.Address.State,
			ZipCode:    tf.Address.ZipCode,
		},
		Amount:      amount,
		Method:      payment.Method(tf.Method),
		Description: tf.Description,
	}
	if err = nt.Validate(cli.validate); err != nil {
		return err
	}
	tx, err := cli.paymentSvc.Create(ctx, nt)
	if err != nil {
		return err
	}

	if status == payment.StatusCompleted || status == payment.StatusFailed {
		_, err = cli.paymentSvc.SetStatus(ctx, tx.ID, status)
	}
	return err
}
