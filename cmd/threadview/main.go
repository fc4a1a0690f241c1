// threadview загружает пост с сервера, при необходимости выполняет одно действие
// над деревом комментариев и печатает отрисованный HTML.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/VitaminP8/threadly/internal/client"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/presenter"
	"go.uber.org/zap"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Адрес сервера")
	postID := flag.String("post", "", "ID поста")
	username := flag.String("user", "", "Имя пользователя (без него - анонимный просмотр)")
	reply := flag.String("reply", "", "Текст комментария")
	parent := flag.String("parent", "", "ID комментария, на который отвечаем")
	voteDir := flag.String("vote", "", "Голос: up или down")
	voteOn := flag.String("comment", "", "ID комментария для голоса (по умолчанию голос за пост)")
	remove := flag.String("delete", "", "ID комментария для удаления")
	verbose := flag.Bool("v", false, "Подробный лог")
	flag.Parse()

	if *postID == "" {
		log.Fatal("-post is required")
	}

	zl := zap.NewNop()
	if *verbose {
		zl, _ = zap.NewDevelopment()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*baseURL)
	var session model.Session
	if *username != "" {
		var err error
		session, err = c.Login(ctx, *username, os.Getenv("THREADLY_PASSWORD"))
		if err != nil {
			log.Fatalf("login: %v", err)
		}
	}

	post, err := c.GetPost(ctx, session, *postID)
	if err != nil {
		log.Fatalf("get post: %v", err)
	}

	stdin := bufio.NewReader(os.Stdin)
	p := presenter.New(post, session, c,
		presenter.WithLogger(zl),
		presenter.WithNotifier(presenter.NotifierFunc(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})),
		presenter.WithConfirmer(presenter.ConfirmerFunc(func(prompt string) bool {
			fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
			answer, _ := stdin.ReadString('\n')
			return strings.EqualFold(strings.TrimSpace(answer), "y")
		})),
	)

	// ошибки действий уже показаны уведомлением, HTML печатаем в любом случае
	switch {
	case *reply != "":
		_, err = p.SubmitReply(ctx, *parent, *reply)
	case *voteDir != "":
		target := model.PostTarget(post.ID)
		if *voteOn != "" {
			target = model.CommentTarget(*voteOn)
		}
		err = p.Vote(ctx, target, model.Vote(*voteDir))
	case *remove != "":
		err = p.DeleteComment(ctx, *remove)
	}
	if err != nil {
		zl.Debug("action failed", zap.Error(err))
	}

	if err := p.Render(os.Stdout); err != nil {
		log.Fatalf("render: %v", err)
	}
}
