package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pot-code/lms-client/internal/account"
	"github.com/pot-code/lms-client/internal/api"
	"github.com/pot-code/lms-client/internal/course"
	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/enrollment"
	"github.com/pot-code/lms-client/internal/identity"
	infra "github.com/pot-code/lms-client/internal/infrastructure"
	"github.com/pot-code/lms-client/internal/infrastructure/driver"
	"github.com/pot-code/lms-client/internal/infrastructure/logging"
	"github.com/pot-code/lms-client/internal/infrastructure/reqid"
	"github.com/pot-code/lms-client/internal/infrastructure/validate"
	"github.com/pot-code/lms-client/internal/session"
	"github.com/spf13/pflag"
)

type app struct {
	sessions    *session.Manager
	enrollments *enrollment.Store
	courses     *course.Service
	accounts    *account.Service
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	store := driver.NewRedisClient(option.State.Host, option.State.Port, option.State.Password)
	if err := store.Ping(); err != nil {
		log.Fatalf("Failed to reach state store: %s\n", err)
	}

	generator := reqid.NewNanoIDGenerator(option.Security.RequestIDLength)
	client := api.NewClient(option.API.BaseURL, option.API.Timeout, logger, generator)
	validator := validate.NewValidator()

	sessions := session.NewManager(client, store, logger)
	resolver := identity.NewResolver(store, logger)
	app := &app{
		sessions:    sessions,
		enrollments: enrollment.NewStore(client, sessions, resolver, logger),
		courses:     course.NewService(client, sessions, validator, logger),
		accounts:    account.NewService(client, sessions, validator, logger),
	}

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	if err := app.dispatch(context.Background(), args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.sessions.Logout()
	case "resume":
		sess, err := a.sessions.Resume(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("session resumed, role %s -> %s\n", sess.Role, sess.Role.HomePath())
		return nil
	case "courses":
		return a.listCourses(ctx)
	case "my-courses":
		return a.listEnrollments(ctx)
	case "enroll":
		return a.enroll(ctx, args)
	case "content":
		return a.content(ctx, args)
	case "reviews":
		return a.reviews(ctx, args)
	case "author-courses":
		return a.authorCourses(ctx)
	case "add-course":
		return a.addCourse(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "signup":
		return a.signup(ctx, args)
	case "profile":
		return a.profile(ctx)
	case "upload-pic":
		return a.uploadPic(ctx, args)
	}
	usage()
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <username> <password>")
	}
	sess, err := a.sessions.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s, role %s -> %s\n", sess.Username, sess.Role, sess.Role.HomePath())
	return nil
}

func (a *app) listCourses(ctx context.Context) error {
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	if err := a.enrollments.Load(ctx); err != nil {
		return err
	}
	for _, c := range a.enrollments.Courses() {
		marker := " "
		if a.enrollments.IsEnrolled(c.ID) {
			marker = "*"
		}
		fmt.Printf("%s %4d  %-40s %.1f credits\n", marker, c.ID, c.Title, c.Credits)
	}
	return nil
}

func (a *app) listEnrollments(ctx context.Context) error {
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	if err := a.enrollments.Load(ctx); err != nil {
		return err
	}
	titles := make(map[int]string)
	for _, c := range a.enrollments.Courses() {
		titles[c.ID] = c.Title
	}
	for _, e := range a.enrollments.Enrollments() {
		fmt.Printf("%4d  %-40s %.0f%% complete\n", e.CourseID, titles[e.CourseID], e.Progress)
	}
	return nil
}

func (a *app) enroll(ctx context.Context, args []string) error {
	courseID, err := courseIDArg(args, "enroll")
	if err != nil {
		return err
	}
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	if err := a.enrollments.Load(ctx); err != nil {
		return err
	}
	if err := a.enrollments.Enroll(ctx, courseID); err != nil {
		return err
	}
	fmt.Printf("enrolled in course %d\n", courseID)
	return nil
}

func (a *app) content(ctx context.Context, args []string) error {
	courseID, err := courseIDArg(args, "content")
	if err != nil {
		return err
	}
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	content, err := a.courses.Content(ctx, courseID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%.1f credits)\n", content.Course.Title, content.Course.Credits)
	for _, m := range content.Modules {
		fmt.Printf("  %s\n", m.Title)
		for _, v := range content.VideosByModule[m.ID] {
			fmt.Printf("    %s — %.0f mins\n", v.Title, v.PlayTime)
		}
	}
	return nil
}

func (a *app) reviews(ctx context.Context, args []string) error {
	courseID, err := courseIDArg(args, "reviews")
	if err != nil {
		return err
	}
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	reviews, err := a.courses.Reviews(ctx, courseID)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		fmt.Printf("%d  %.1f  %s  (%s)\n", r.ID, r.Rating, r.Comments, r.LearnerName)
	}
	return nil
}

func (a *app) authorCourses(ctx context.Context) error {
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	courses, err := a.courses.CoursesByAuthor(ctx)
	if err != nil {
		return err
	}
	for _, c := range courses {
		fmt.Printf("%4d  %-40s %.1f credits\n", c.ID, c.Title, c.Credits)
	}
	return nil
}

func (a *app) addCourse(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: add-course <title> <credits> [image]")
	}
	credits, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid credits %q", args[1])
	}
	nc := domain.NewCourse{Title: args[0], Credits: credits}
	if len(args) > 2 {
		nc.Image = args[2]
	}
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	if err := a.courses.Add(ctx, nc); err != nil {
		return err
	}
	fmt.Println("course added")
	return nil
}

func (a *app) stats(ctx context.Context) error {
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	stats, err := a.courses.Stats(ctx)
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Printf("%-40s %d\n", s.CourseTitle, s.Enrollments)
	}
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: signup <username> <password> <role> [fullName]")
	}
	nu := account.NewUser{
		Username: args[0],
		Password: args[1],
		Role:     domain.Role(args[2]),
	}
	if len(args) > 3 {
		nu.Author = &account.AuthorProfile{FullName: args[3]}
	}
	if err := a.accounts.Signup(ctx, nu); err != nil {
		return err
	}
	fmt.Println("registration successful, log in to continue")
	return nil
}

func (a *app) profile(ctx context.Context) error {
	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	author, err := a.accounts.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s\ncontact: %s\nwebsite: %s\n", author.FullName, author.Contact, author.Website)
	return nil
}

func (a *app) uploadPic(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: upload-pic <file>")
	}
	fd, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fd.Close()

	if _, err := a.sessions.Resume(ctx); err != nil {
		return err
	}
	stored, err := a.accounts.UploadProfilePic(ctx, fd.Name(), fd)
	if err != nil {
		return err
	}
	fmt.Printf("profile picture stored as %s\n", stored)
	return nil
}

func courseIDArg(args []string, command string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <courseID>", command)
	}
	courseID, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid course id %q", args[0])
	}
	return courseID, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: lms [flags] <command> [args]

commands:
  login <username> <password>   authenticate and print the landing path
  logout                        destroy the session
  resume                        rebuild the session from the stored token
  courses                       list the catalog, * marks enrollments
  my-courses                    list enrolled courses with progress
  enroll <courseID>             enroll in a course
  content <courseID>            show the module/video tree of a course
  reviews <courseID>            show the reviews of a course
  author-courses                list courses owned by the author
  add-course <title> <credits>  create a course
  stats                         show enrollment counts per course
  signup <user> <pass> <role>   create an account (role LEARNER or AUTHOR)
  profile                       show the author profile
  upload-pic <file>             upload an author profile picture`)
}
