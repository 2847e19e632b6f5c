package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.baseMiddleware()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteGoogleLogin, ChainMiddleware(s.GoogleLoginHandler(), s.baseMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteGoogleCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.baseMiddleware()...))

	// Protected routes (require an authenticated session)
	s.RegisterRouteHandler("GET "+RouteProtected, ChainMiddleware(s.ProtectedHandler(), s.baseMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.baseMiddleware(s.RequireAuth())...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}
