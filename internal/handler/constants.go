package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RoutePost is the single post route pattern. The parameter accepts a
	// numeric ID or a permalink slug.
	RoutePost = "/post/{post}"
	// RouteNewPost is the new post route.
	RouteNewPost = "/new-post"
	// RouteEditPost is the edit post route pattern.
	RouteEditPost = "/edit-post/{id}"
	// RouteDeletePost is the delete post route pattern.
	RouteDeletePost = "/delete/{id}"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteContact is the contact page route.
	RouteContact = "/contact"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

const (
	redirectHome     = RouteRoot
	redirectLogin    = RouteLogin
	redirectRegister = RouteRegister
	redirectNewPost  = RouteNewPost

	redirectPostID   = "/post/%d"
	redirectEditPost = "/edit-post/%d"
)
